package main

// The axis and card catalogs are plain lookup tables keyed by theme tag.
// Theme tags match what the web client sends; ThemeAll is the sentinel
// meaning "draw from everything".

const ThemeAll = "all"

const (
	ThemeFood          = "food"
	ThemeDaily         = "daily"
	ThemeEntertainment = "entertainment"
	ThemeAnimal        = "animal"
	ThemePlace         = "place"
	ThemeVehicle       = "vehicle"
	ThemeSport         = "sport"
)

// AxisLabel is one opposing descriptive pair from the catalog. Positive
// and Negative name the two poles before any seeded flip is applied.
type AxisLabel struct {
	ID       string
	Positive string
	Negative string
	Themes   []string
}

func (a AxisLabel) hasTheme(theme string) bool {
	if theme == ThemeAll {
		return true
	}
	for _, t := range a.Themes {
		if t == theme {
			return true
		}
	}
	return false
}

var axisCatalog = []AxisLabel{
	{ID: "expensive", Positive: "Expensive", Negative: "Cheap", Themes: []string{ThemeFood, ThemeDaily, ThemeVehicle, ThemePlace}},
	{ID: "healthy", Positive: "Healthy", Negative: "Unhealthy", Themes: []string{ThemeFood, ThemeSport}},
	{ID: "sweet", Positive: "Sweet", Negative: "Savory", Themes: []string{ThemeFood}},
	{ID: "hot", Positive: "Served hot", Negative: "Served cold", Themes: []string{ThemeFood}},
	{ID: "fancy", Positive: "Fancy", Negative: "Everyday", Themes: []string{ThemeFood, ThemeDaily, ThemePlace}},
	{ID: "heavy", Positive: "Heavy", Negative: "Light", Themes: []string{ThemeFood, ThemeDaily, ThemeVehicle}},
	{ID: "modern", Positive: "Modern", Negative: "Traditional", Themes: []string{ThemeDaily, ThemeEntertainment, ThemePlace}},
	{ID: "fragile", Positive: "Fragile", Negative: "Durable", Themes: []string{ThemeDaily}},
	{ID: "essential", Positive: "Essential", Negative: "Luxury", Themes: []string{ThemeDaily, ThemeVehicle}},
	{ID: "loud", Positive: "Loud", Negative: "Quiet", Themes: []string{ThemeEntertainment, ThemeAnimal, ThemeVehicle, ThemePlace}},
	{ID: "relaxing", Positive: "Relaxing", Negative: "Exciting", Themes: []string{ThemeEntertainment, ThemePlace, ThemeSport}},
	{ID: "solo", Positive: "Best alone", Negative: "Best in groups", Themes: []string{ThemeEntertainment, ThemeSport}},
	{ID: "kids", Positive: "For kids", Negative: "For adults", Themes: []string{ThemeEntertainment}},
	{ID: "cute", Positive: "Cute", Negative: "Scary", Themes: []string{ThemeAnimal, ThemeEntertainment}},
	{ID: "fast", Positive: "Fast", Negative: "Slow", Themes: []string{ThemeAnimal, ThemeVehicle, ThemeSport}},
	{ID: "big", Positive: "Big", Negative: "Small", Themes: []string{ThemeAnimal, ThemeVehicle, ThemePlace}},
	{ID: "wild", Positive: "Wild", Negative: "Domesticated", Themes: []string{ThemeAnimal}},
	{ID: "crowded", Positive: "Crowded", Negative: "Deserted", Themes: []string{ThemePlace}},
	{ID: "urban", Positive: "Urban", Negative: "Rural", Themes: []string{ThemePlace}},
	{ID: "eco", Positive: "Eco-friendly", Negative: "Gas-guzzling", Themes: []string{ThemeVehicle}},
	{ID: "daily-use", Positive: "Daily commute", Negative: "Special occasion", Themes: []string{ThemeVehicle}},
	{ID: "athletic", Positive: "Strength-based", Negative: "Skill-based", Themes: []string{ThemeSport}},
	{ID: "team", Positive: "Team sport", Negative: "Individual", Themes: []string{ThemeSport}},
	{ID: "dangerous", Positive: "Dangerous", Negative: "Safe", Themes: []string{ThemeAnimal, ThemeSport, ThemeVehicle}},
}

// Card is one item players place on the board.
type Card struct {
	ID     string
	Name   string
	Themes []string
}

func (c Card) hasTheme(theme string) bool {
	if theme == ThemeAll {
		return true
	}
	for _, t := range c.Themes {
		if t == theme {
			return true
		}
	}
	return false
}

var cardCatalog = []Card{
	{ID: "apple", Name: "Apple", Themes: []string{ThemeFood}},
	{ID: "banana", Name: "Banana", Themes: []string{ThemeFood}},
	{ID: "grapes", Name: "Grapes", Themes: []string{ThemeFood}},
	{ID: "strawberry", Name: "Strawberry", Themes: []string{ThemeFood}},
	{ID: "watermelon", Name: "Watermelon", Themes: []string{ThemeFood}},
	{ID: "ramen", Name: "Ramen", Themes: []string{ThemeFood}},
	{ID: "curry", Name: "Curry", Themes: []string{ThemeFood}},
	{ID: "pizza", Name: "Pizza", Themes: []string{ThemeFood}},
	{ID: "sushi", Name: "Sushi", Themes: []string{ThemeFood}},
	{ID: "udon", Name: "Udon", Themes: []string{ThemeFood}},
	{ID: "onigiri", Name: "Onigiri", Themes: []string{ThemeFood}},
	{ID: "cake", Name: "Cake", Themes: []string{ThemeFood}},
	{ID: "chocolate", Name: "Chocolate", Themes: []string{ThemeFood}},
	{ID: "ice-cream", Name: "Ice cream", Themes: []string{ThemeFood}},
	{ID: "pudding", Name: "Pudding", Themes: []string{ThemeFood}},
	{ID: "donut", Name: "Donut", Themes: []string{ThemeFood}},
	{ID: "cookie", Name: "Cookie", Themes: []string{ThemeFood}},
	{ID: "dog", Name: "Dog", Themes: []string{ThemeAnimal}},
	{ID: "cat", Name: "Cat", Themes: []string{ThemeAnimal}},
	{ID: "rabbit", Name: "Rabbit", Themes: []string{ThemeAnimal}},
	{ID: "elephant", Name: "Elephant", Themes: []string{ThemeAnimal}},
	{ID: "lion", Name: "Lion", Themes: []string{ThemeAnimal}},
	{ID: "giraffe", Name: "Giraffe", Themes: []string{ThemeAnimal}},
	{ID: "panda", Name: "Panda", Themes: []string{ThemeAnimal}},
	{ID: "koala", Name: "Koala", Themes: []string{ThemeAnimal}},
	{ID: "penguin", Name: "Penguin", Themes: []string{ThemeAnimal}},
	{ID: "dolphin", Name: "Dolphin", Themes: []string{ThemeAnimal}},
	{ID: "whale", Name: "Whale", Themes: []string{ThemeAnimal}},
	{ID: "shark", Name: "Shark", Themes: []string{ThemeAnimal}},
	{ID: "goldfish", Name: "Goldfish", Themes: []string{ThemeAnimal}},
	{ID: "turtle", Name: "Turtle", Themes: []string{ThemeAnimal}},
	{ID: "car", Name: "Car", Themes: []string{ThemeVehicle}},
	{ID: "train", Name: "Train", Themes: []string{ThemeVehicle}},
	{ID: "bus", Name: "Bus", Themes: []string{ThemeVehicle}},
	{ID: "airplane", Name: "Airplane", Themes: []string{ThemeVehicle}},
	{ID: "helicopter", Name: "Helicopter", Themes: []string{ThemeVehicle}},
	{ID: "bicycle", Name: "Bicycle", Themes: []string{ThemeVehicle}},
	{ID: "motorcycle", Name: "Motorcycle", Themes: []string{ThemeVehicle}},
	{ID: "ship", Name: "Ship", Themes: []string{ThemeVehicle}},
	{ID: "smartphone", Name: "Smartphone", Themes: []string{ThemeDaily}},
	{ID: "laptop", Name: "Laptop", Themes: []string{ThemeDaily}},
	{ID: "television", Name: "Television", Themes: []string{ThemeDaily}},
	{ID: "fridge", Name: "Refrigerator", Themes: []string{ThemeDaily}},
	{ID: "aircon", Name: "Air conditioner", Themes: []string{ThemeDaily}},
	{ID: "clock", Name: "Clock", Themes: []string{ThemeDaily}},
	{ID: "camera", Name: "Camera", Themes: []string{ThemeDaily}},
	{ID: "umbrella", Name: "Umbrella", Themes: []string{ThemeDaily}},
	{ID: "pen", Name: "Pen", Themes: []string{ThemeDaily}},
	{ID: "notebook", Name: "Notebook", Themes: []string{ThemeDaily}},
	{ID: "scissors", Name: "Scissors", Themes: []string{ThemeDaily}},
	{ID: "glue", Name: "Glue", Themes: []string{ThemeDaily}},
	{ID: "tape", Name: "Tape", Themes: []string{ThemeDaily}},
	{ID: "stapler", Name: "Stapler", Themes: []string{ThemeDaily}},
	{ID: "movie", Name: "Movies", Themes: []string{ThemeEntertainment}},
	{ID: "anime", Name: "Anime", Themes: []string{ThemeEntertainment}},
	{ID: "video-game", Name: "Video games", Themes: []string{ThemeEntertainment}},
	{ID: "music", Name: "Music", Themes: []string{ThemeEntertainment}},
	{ID: "book", Name: "Books", Themes: []string{ThemeEntertainment}},
	{ID: "manga", Name: "Manga", Themes: []string{ThemeEntertainment}},
	{ID: "magazine", Name: "Magazines", Themes: []string{ThemeEntertainment}},
	{ID: "drama", Name: "TV dramas", Themes: []string{ThemeEntertainment}},
	{ID: "soccer", Name: "Soccer", Themes: []string{ThemeSport}},
	{ID: "baseball", Name: "Baseball", Themes: []string{ThemeSport}},
	{ID: "basketball", Name: "Basketball", Themes: []string{ThemeSport}},
	{ID: "tennis", Name: "Tennis", Themes: []string{ThemeSport}},
	{ID: "swimming", Name: "Swimming", Themes: []string{ThemeSport}},
	{ID: "marathon", Name: "Marathon", Themes: []string{ThemeSport}},
	{ID: "judo", Name: "Judo", Themes: []string{ThemeSport}},
	{ID: "climbing", Name: "Rock climbing", Themes: []string{ThemeSport}},
	{ID: "beach", Name: "Beach", Themes: []string{ThemePlace}},
	{ID: "mountain", Name: "Mountains", Themes: []string{ThemePlace}},
	{ID: "library", Name: "Library", Themes: []string{ThemePlace}},
	{ID: "amusement-park", Name: "Amusement park", Themes: []string{ThemePlace}},
	{ID: "hot-spring", Name: "Hot spring", Themes: []string{ThemePlace}},
	{ID: "convenience-store", Name: "Convenience store", Themes: []string{ThemePlace}},
	{ID: "airport", Name: "Airport", Themes: []string{ThemePlace}},
	{ID: "museum", Name: "Museum", Themes: []string{ThemePlace}},
}

func axesForTheme(theme string) []AxisLabel {
	out := make([]AxisLabel, 0, len(axisCatalog))
	for _, a := range axisCatalog {
		if a.hasTheme(theme) {
			out = append(out, a)
		}
	}
	return out
}

func cardsForTheme(theme string) []Card {
	out := make([]Card, 0, len(cardCatalog))
	for _, c := range cardCatalog {
		if c.hasTheme(theme) {
			out = append(out, c)
		}
	}
	return out
}

func validTheme(theme string) bool {
	switch theme {
	case ThemeAll, ThemeFood, ThemeDaily, ThemeEntertainment,
		ThemeAnimal, ThemePlace, ThemeVehicle, ThemeSport:
		return true
	}
	return false
}
