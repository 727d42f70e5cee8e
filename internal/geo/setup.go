package geo

import "gorm.io/gorm"

func Migrate(d *gorm.DB) error {
	return d.AutoMigrate(&District{}, &Circle{}, &Village{})
}
