package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wasfa/models"
)

// SuggestionRequest captures the user's natural-language recipe request
// plus the structured context forwarded to the model.
type SuggestionRequest struct {
	Prompt      string
	Mood        string
	Ingredients []string
	Servings    int
	Lang        string
}

// GeneratedIngredient is one ingredient entry of a generated recipe. The
// model answers in the request language only, so the same name is echoed
// into every localized slot.
type GeneratedIngredient struct {
	Name     models.LocalizedText `json:"name"`
	Quantity string               `json:"quantity"`
	Unit     string               `json:"unit,omitempty"`
}

// GeneratedRecipe is an ephemeral recipe shaped like a stored one. It is
// never persisted; the ID marks it as AI-generated.
type GeneratedRecipe struct {
	ID                  string                `json:"id"`
	Title               models.LocalizedText  `json:"title"`
	Description         models.LocalizedText  `json:"description"`
	Ingredients         []GeneratedIngredient `json:"ingredients"`
	Instructions        models.LocalizedText  `json:"instructions"`
	CookTime            int                   `json:"cookTime"`
	Difficulty          string                `json:"difficulty"`
	Tags                []string              `json:"tags"`
	Image               string                `json:"image"`
	IsAIGenerated       bool                  `json:"isAIGenerated"`
	NutritionHighlights string                `json:"nutritionHighlights,omitempty"`
}

// SuggestionResult bundles generated recipes with a localized message.
type SuggestionResult struct {
	Message       string            `json:"message"`
	Recipes       []GeneratedRecipe `json:"recipes"`
	IsAIGenerated bool              `json:"isAIGenerated"`
	Prompt        string            `json:"prompt"`
}

type rawRecipe struct {
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Ingredients         []rawIngredient `json:"ingredients"`
	Instructions        []string        `json:"instructions"`
	CookTime            int             `json:"cookTime"`
	Difficulty          string          `json:"difficulty"`
	Tags                []string        `json:"tags"`
	NutritionHighlights string          `json:"nutritionHighlights"`
}

type rawIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// SuggestRecipes asks the model for three recipe ideas matching the
// request and reshapes the reply into application recipes.
func (c *Client) SuggestRecipes(ctx context.Context, req SuggestionRequest) (SuggestionResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return SuggestionResult{}, errors.New("ai: prompt must not be empty")
	}
	lang := models.NormalizeLanguage(req.Lang)
	servings := req.Servings
	if servings <= 0 {
		servings = 2
	}

	userPrompt := buildUserPrompt(prompt, req.Mood, req.Ingredients, servings, lang)

	payload := map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"max_tokens":  2500,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": systemPrompt(lang),
			},
			{
				"role":    "user",
				"content": userPrompt,
			},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	content, err := c.chatCompletion(ctx, payload)
	if err != nil {
		return SuggestionResult{}, err
	}

	rawRecipes, err := parseRecipePayload(content)
	if err != nil {
		return SuggestionResult{}, err
	}

	recipes := make([]GeneratedRecipe, 0, len(rawRecipes))
	for _, raw := range rawRecipes {
		recipes = append(recipes, transformRecipe(raw))
	}

	return SuggestionResult{
		Message:       suggestionMessage(lang, len(recipes)),
		Recipes:       recipes,
		IsAIGenerated: true,
		Prompt:        userPrompt,
	}, nil
}

func systemPrompt(lang string) string {
	prompts := map[string]string{
		models.LangEN: `You are a professional chef and culinary expert. Suggest creative, delicious, and practical recipes based on user requests.

Guidelines:
- Generate 3 unique and diverse recipe suggestions
- Each recipe must be complete with ingredients and instructions
- Consider the user's mood, available ingredients, and preferences
- Include cooking time, difficulty level, and nutritional highlights
- Be creative but practical

Respond with a JSON object {"recipes": [...]} where each recipe has this exact structure:
{
  "title": "Recipe Name",
  "description": "Brief description (2-3 sentences)",
  "ingredients": [{"name": "ingredient name", "quantity": "amount", "unit": "measurement"}],
  "instructions": ["Step 1 instruction", "Step 2 instruction"],
  "cookTime": 30,
  "difficulty": "easy|medium|hard",
  "tags": ["tag1", "tag2"],
  "nutritionHighlights": "Brief nutrition info"
}`,
		models.LangFR: `Vous êtes un chef professionnel et expert culinaire. Suggérez des recettes créatives, délicieuses et pratiques basées sur les demandes des utilisateurs.

Directives:
- Générez 3 suggestions de recettes uniques et diversifiées
- Chaque recette doit être complète avec ingrédients et instructions
- Considérez l'humeur de l'utilisateur, les ingrédients disponibles et les préférences
- Incluez le temps de cuisson, le niveau de difficulté et les points nutritionnels
- Soyez créatif mais pratique

Répondez avec un objet JSON {"recipes": [...]} où chaque recette suit cette structure exacte:
{
  "title": "Nom de la recette",
  "description": "Brève description (2-3 phrases)",
  "ingredients": [{"name": "nom de l'ingrédient", "quantity": "quantité", "unit": "mesure"}],
  "instructions": ["Instruction étape 1", "Instruction étape 2"],
  "cookTime": 30,
  "difficulty": "easy|medium|hard",
  "tags": ["tag1", "tag2"],
  "nutritionHighlights": "Brève info nutritionnelle"
}`,
		models.LangAR: `أنت طاهٍ محترف وخبير في الطهي. دورك هو اقتراح وصفات إبداعية ولذيذة وعملية بناءً على طلبات المستخدمين.

الإرشادات:
- قم بإنشاء 3 اقتراحات وصفات فريدة ومتنوعة
- يجب أن تكون كل وصفة كاملة مع المكونات والتعليمات
- ضع في اعتبارك مزاج المستخدم والمكونات المتاحة والتفضيلات
- قم بتضمين وقت الطهي ومستوى الصعوبة والنقاط الغذائية
- كن مبدعاً ولكن عملياً

أجب بكائن JSON بالشكل {"recipes": [...]} حيث تتبع كل وصفة هذا الهيكل بالضبط:
{
  "title": "اسم الوصفة",
  "description": "وصف موجز (2-3 جمل)",
  "ingredients": [{"name": "اسم المكون", "quantity": "الكمية", "unit": "الوحدة"}],
  "instructions": ["تعليمات الخطوة 1", "تعليمات الخطوة 2"],
  "cookTime": 30,
  "difficulty": "easy|medium|hard",
  "tags": ["tag1", "tag2"],
  "nutritionHighlights": "معلومات غذائية موجزة"
}`,
	}

	if prompt, ok := prompts[lang]; ok {
		return prompt
	}
	return prompts[models.LangEN]
}

func buildUserPrompt(prompt, mood string, ingredients []string, servings int, lang string) string {
	var builder strings.Builder
	builder.WriteString(prompt)

	if mood != "" {
		switch lang {
		case models.LangFR:
			builder.WriteString(fmt.Sprintf(" Je me sens %s.", mood))
		case models.LangAR:
			builder.WriteString(fmt.Sprintf(" أشعر بـ %s.", mood))
		default:
			builder.WriteString(fmt.Sprintf(" I'm feeling %s.", mood))
		}
	}

	if len(ingredients) > 0 {
		switch lang {
		case models.LangFR:
			builder.WriteString(fmt.Sprintf(" J'ai ces ingrédients disponibles: %s.", strings.Join(ingredients, ", ")))
		case models.LangAR:
			builder.WriteString(fmt.Sprintf(" لدي هذه المكونات المتاحة: %s.", strings.Join(ingredients, "، ")))
		default:
			builder.WriteString(fmt.Sprintf(" I have these ingredients available: %s.", strings.Join(ingredients, ", ")))
		}
	}

	switch lang {
	case models.LangFR:
		noun := "personnes"
		if servings == 1 {
			noun = "personne"
		}
		builder.WriteString(fmt.Sprintf(" Je dois cuisiner pour %d %s.", servings, noun))
	case models.LangAR:
		noun := "أشخاص"
		if servings == 1 {
			noun = "شخص"
		}
		builder.WriteString(fmt.Sprintf(" أحتاج للطهي لـ %d %s.", servings, noun))
	default:
		noun := "people"
		if servings == 1 {
			noun = "person"
		}
		builder.WriteString(fmt.Sprintf(" I need to cook for %d %s.", servings, noun))
	}

	return builder.String()
}

// parseRecipePayload accepts either a bare JSON array or an object
// wrapping a "recipes" array, since models answer with both shapes.
func parseRecipePayload(content string) ([]rawRecipe, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("ai: empty suggestion payload")
	}

	if strings.HasPrefix(content, "[") {
		var recipes []rawRecipe
		if err := json.Unmarshal([]byte(content), &recipes); err != nil {
			return nil, fmt.Errorf("ai: parse suggestion payload: %w", err)
		}
		return recipes, nil
	}

	var wrapped struct {
		Recipes []rawRecipe `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
		return nil, fmt.Errorf("ai: parse suggestion payload: %w", err)
	}
	return wrapped.Recipes, nil
}

func transformRecipe(raw rawRecipe) GeneratedRecipe {
	sameText := func(value string) models.LocalizedText {
		return models.LocalizedText{EN: value, FR: value, AR: value}
	}

	ingredients := make([]GeneratedIngredient, 0, len(raw.Ingredients))
	for _, ing := range raw.Ingredients {
		ingredients = append(ingredients, GeneratedIngredient{
			Name:     sameText(ing.Name),
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}

	cookTime := raw.CookTime
	if cookTime <= 0 {
		cookTime = 30
	}

	difficulty := raw.Difficulty
	if !models.ValidDifficulty(difficulty) {
		difficulty = models.DifficultyMedium
	}

	tags := raw.Tags
	if tags == nil {
		tags = []string{}
	}

	steps := strings.Join(raw.Instructions, "\n")

	return GeneratedRecipe{
		ID:                  "ai-" + uuid.NewString(),
		Title:               sameText(raw.Title),
		Description:         sameText(raw.Description),
		Ingredients:         ingredients,
		Instructions:        sameText(steps),
		CookTime:            cookTime,
		Difficulty:          difficulty,
		Tags:                tags,
		Image:               "/placeholder-recipe.jpg",
		IsAIGenerated:       true,
		NutritionHighlights: raw.NutritionHighlights,
	}
}

func suggestionMessage(lang string, count int) string {
	switch lang {
	case models.LangFR:
		return fmt.Sprintf("J'ai créé %d recettes uniques rien que pour vous ! Chaque recette est adaptée à vos préférences et ingrédients disponibles. Bon appétit !", count)
	case models.LangAR:
		return fmt.Sprintf("لقد أنشأت %d وصفات فريدة خصيصًا لك! كل وصفة مصممة خصيصًا لتفضيلاتك والمكونات المتاحة. استمتع بالطهي!", count)
	default:
		return fmt.Sprintf("I've created %d unique recipes just for you! Each recipe is tailored to your preferences and available ingredients. Enjoy cooking!", count)
	}
}
