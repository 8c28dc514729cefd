package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "wasfa/internal/log"
	"wasfa/models"
)

// New returns an in-memory sqlite database seeded with representative
// kitchen data: an admin account, a home cook, a handful of localized
// recipes and their reviews.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:wasfa-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.Ingredient{},
		&models.Review{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("kitchen"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     "chef",
		Email:        "chef@wasfa.app",
		PasswordHash: string(password),
		Role:         models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	cook := &models.User{
		Username:     "leila",
		Email:        "leila@wasfa.app",
		PasswordHash: string(password),
		Role:         models.RoleUser,
	}
	if err := db.WithContext(ctx).Create(cook).Error; err != nil {
		return err
	}

	koshari := models.Recipe{
		Title: models.LocalizedText{
			EN: "Koshari",
			FR: "Koshari",
			AR: "كشري",
		},
		Instructions: models.LocalizedText{
			EN: "Cook the rice and lentils, fry the onions, layer with pasta and tomato sauce.",
			FR: "Cuire le riz et les lentilles, frire les oignons, assembler avec les pâtes et la sauce tomate.",
			AR: "اطبخ الأرز والعدس، واقل البصل، ثم رتب الطبقات مع المكرونة وصلصة الطماطم.",
		},
		CookTime:   45,
		Difficulty: models.DifficultyMedium,
		Mood:       models.MoodHungry,
		Tags:       []string{"hearty", "filling", "carbs"},
		UserID:     admin.ID,
		Ingredients: []models.Ingredient{
			{Name: models.LocalizedText{EN: "rice", FR: "riz", AR: "أرز"}, Quantity: "2 cups"},
			{Name: models.LocalizedText{EN: "lentils", FR: "lentilles", AR: "عدس"}, Quantity: "1 cup"},
			{Name: models.LocalizedText{EN: "onion", FR: "oignon", AR: "بصل"}, Quantity: "2 large"},
		},
	}

	harira := models.Recipe{
		Title: models.LocalizedText{
			EN: "Harira soup",
			FR: "Soupe harira",
			AR: "حساء الحريرة",
		},
		Instructions: models.LocalizedText{
			EN: "Simmer the tomatoes, chickpeas and herbs, then thicken with flour.",
			FR: "Mijoter les tomates, les pois chiches et les herbes, puis épaissir avec la farine.",
			AR: "اطبخ الطماطم والحمص والأعشاب على نار هادئة، ثم كثف الحساء بالدقيق.",
		},
		CookTime:   60,
		Difficulty: models.DifficultyEasy,
		Mood:       models.MoodSad,
		Tags:       []string{"comfort", "homemade", "warm"},
		UserID:     admin.ID,
		Ingredients: []models.Ingredient{
			{Name: models.LocalizedText{EN: "tomatoes", FR: "tomates", AR: "طماطم"}, Quantity: "6"},
			{Name: models.LocalizedText{EN: "chickpeas", FR: "pois chiches", AR: "حمص"}, Quantity: "1 cup"},
		},
	}

	fattoush := models.Recipe{
		Title: models.LocalizedText{
			EN: "Fattoush salad",
			FR: "Salade fattouche",
			AR: "سلطة فتوش",
		},
		Instructions: models.LocalizedText{
			EN: "Toss the vegetables with toasted bread and sumac dressing.",
			FR: "Mélanger les légumes avec le pain grillé et la vinaigrette au sumac.",
			AR: "اخلط الخضار مع الخبز المحمص وتتبيلة السماق.",
		},
		CookTime:   15,
		Difficulty: models.DifficultyEasy,
		Mood:       models.MoodEnergetic,
		Tags:       []string{"light", "refreshing", "easy"},
		UserID:     admin.ID,
		Ingredients: []models.Ingredient{
			{Name: models.LocalizedText{EN: "cucumber", FR: "concombre", AR: "خيار"}, Quantity: "2"},
			{Name: models.LocalizedText{EN: "pita bread", FR: "pain pita", AR: "خبز البيتا"}, Quantity: "1 loaf"},
		},
	}

	recipes := []*models.Recipe{&koshari, &harira, &fattoush}
	for _, recipe := range recipes {
		if err := db.WithContext(ctx).Create(recipe).Error; err != nil {
			return err
		}
	}

	reviews := []models.Review{
		{UserID: cook.ID, RecipeID: koshari.ID, Rating: 5, Comment: "Tastes like home."},
		{UserID: admin.ID, RecipeID: harira.ID, Rating: 4, Comment: "Needs a touch more lemon."},
	}
	for _, review := range reviews {
		review := review
		if err := db.WithContext(ctx).Create(&review).Error; err != nil {
			return err
		}
		if err := db.WithContext(ctx).Model(&models.Recipe{}).
			Where("id = ?", review.RecipeID).
			Update("average_rating", float64(review.Rating)).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded",
		"users", 2,
		"recipes", len(recipes),
		"reviews", len(reviews),
	)
	return nil
}
