package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Event{},
		&TicketType{},
		&Coupon{},
		&PointsGrant{},
		&PointsRedemption{},
		&Transaction{},
		&TransactionItem{},
		&Ticket{},
		&Review{},
	)
}
