package models

// All returns every persistence model in dependency order.
// SQL migrations own the postgres schema; AutoMigrate over this list is used
// for sqlite development databases and tests.
func All() []any {
	return []any{
		&CurrencyModel{},
		&StoreModel{},
		&SalesChannelModel{},
		&RegionModel{},
		&CountryModel{},
		&RoleModel{},
		&UserModel{},
		&UserRoleModel{},
		&SessionModel{},
		&CustomerModel{},
		&CustomerAddressModel{},
		&CustomerGroupModel{},
		&CustomerGroupMemberModel{},
		&ProductModel{},
		&ProductOptionModel{},
		&ProductVariantModel{},
		&ProductSalesChannelModel{},
		&PriceListModel{},
		&PriceModel{},
		&TaxRegionModel{},
		&TaxRateModel{},
		&CampaignModel{},
		&PromotionModel{},
		&StockLocationModel{},
		&LocationSalesChannelModel{},
		&InventoryItemModel{},
		&InventoryLevelModel{},
		&ReservationModel{},
		&ShippingOptionModel{},
		&CartModel{},
		&CartLineItemModel{},
		&CartShippingMethodModel{},
		&OrderModel{},
		&OrderLineItemModel{},
		&ReturnModel{},
		&FulfillmentModel{},
		&PaymentCollectionModel{},
		&PaymentModel{},
	}
}
