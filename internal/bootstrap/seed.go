package bootstrap

import (
	"github.com/sirupsen/logrus"

	"anoa.com/studentroster/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DemoEmail    = "teacher@roster.local"
	demoPassword = "teacher123"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Student{},
	)
}

// SeedDemoUser creates a sign-in account with a small class list for local
// development. It is a no-op when the account already exists.
func SeedDemoUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", DemoEmail).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logrus.Info("Demo user already exists, skipping seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		user := entity.User{
			Email:        DemoEmail,
			PasswordHash: string(hashedPasswordBytes),
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		students := []entity.Student{
			{UserID: user.ID, Name: "Bob Harris", RollNumber: "002", Class: "10A"},
			{UserID: user.ID, Name: "Ann Lee", RollNumber: "001", Class: "10B", Email: stringPtr("ann.lee@school.edu")},
			{UserID: user.ID, Name: "Carlos Diaz", RollNumber: "003", Class: "10A", Phone: stringPtr("+1 555 0100")},
		}
		if err := tx.Create(&students).Error; err != nil {
			return err
		}

		logrus.WithField("email", DemoEmail).Info("demo user seeded")
		return nil
	})
}

func stringPtr(s string) *string {
	return &s
}
