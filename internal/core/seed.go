package core

import (
	"fmt"
	"math/rand/v2"

	"foodbike/pkg/domain"

	"github.com/shopspring/decimal"
)

// DefaultSeed feeds the reference rating generator.
const DefaultSeed uint64 = 20240601

var referenceNames = []string{
	"Khabar Ghar", "Bhoj Bari", "Ruchi Bhandar", "Pakghor", "Swaad Kutir",
	"Amader Rannaghor", "Khana Khazana", "Rasoi Ghar", "Bhojan Griha", "Annapurna Bhoj",
	"Spice Lounge", "Flavour Junction", "Royal Feast", "Golden Spoon", "Heritage Kitchen",
	"Bawarchi Khana", "Dawat Ghar", "Mehfil Restaurant", "Sultan's Kitchen", "Mughal Durbar",
	"Kacchi Bhai", "Biryani Mahal", "Tehari House", "Pulao Palace", "Rice Bowl",
	"Tandoori Adda", "Kebab Corner", "Tikka Time", "Grill Master", "BBQ Nation",
	"Curry Hub", "Masala Magic", "Spice Garden", "Chili Chicken", "Pepper Pot",
	"Roti Ghar", "Naan Stop", "Paratha Plaza", "Chapati Corner", "Bread Basket",
	"Desi Dhaba", "Village Kitchen", "Gram Bangla", "Shobar Rannaghor", "Bazar Bhoj",
	"Fish Fry", "Machher Bazar", "Prawn Paradise", "Seafood Station", "Ocean Delight",
	"Chicken King", "Murgh Mahal", "Roast House", "Fry Point", "Korai Kitchen",
	"Sweet Corner", "Mishti Mukh", "Rosogolla House", "Dessert Delight", "Cake Palace",
	"Tea Time", "Cha Chakra", "Coffee Adda", "Cafe Culture", "Brew Station",
	"Breakfast Bazar", "Morning Meals", "Nashta Ghar", "Brunch Spot", "Early Bites",
	"Fast Food Fusion", "Quick Bites", "Snack Attack", "Chatpata Corner", "Street Food",
	"Pizza Point", "Pasta House", "Italian Touch", "Continental Cafe", "Western Grill",
	"Chinese Wok", "Thai Spice", "Asian Bowl", "Oriental Kitchen", "Dragon House",
	"Burger Spot", "Sandwich Shop", "Wrap Zone", "Hot Dog Hub", "Sub Station",
	"Juice Junction", "Lassi Bar", "Smoothie Corner", "Borhani Bazar", "Drink Depot",
	"Vegetarian Villa", "Green Plate", "Salad Bowl", "Healthy Eats", "Organic Oasis",
}

var referenceAreas = []string{
	"Shadar Road", "Station Road", "College Road", "Market Area", "City Center",
	"Sadar", "Pourashava", "Bypass Road", "Main Road", "Upazila Road",
}

type referenceDish struct {
	name, description string
	price             int64
}

var referenceMenu = []referenceDish{
	{"Special Combo", "Our signature dish", 250},
	{"Deluxe Meal", "Premium items", 350},
	{"Basic Meal", "Standard items", 150},
	{"Beverage", "Drinks and juices", 50},
}

var (
	ratingFloor = decimal.RequireFromString("3.5")
	ratingSpan  = decimal.RequireFromString("1.5")
)

// ReferenceRestaurants builds the full reference dataset: regions in catalog
// order, subregions in order, RestaurantsPerSubregion each. The same seed
// always yields the same dataset.
func ReferenceRestaurants(seed uint64) []Restaurant {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]Restaurant, 0, domain.ReferenceRestaurantCount())
	global := 0
	for _, region := range domain.Regions() {
		seq := 0
		for _, sub := range region.Subregions {
			for j := 0; j < domain.RestaurantsPerSubregion; j++ {
				seq++
				out = append(out, referenceRestaurant(region, sub, seq, global, rng))
				global++
			}
		}
	}
	return out
}

func referenceRestaurant(region domain.Region, subregion string, seq, global int, rng *rand.Rand) Restaurant {
	n := len(referenceNames)
	name := referenceNames[global%n]
	if global >= n {
		name = fmt.Sprintf("%s %d", name, global/n)
	}
	position := global + 1
	menu := make([]MenuItem, len(referenceMenu))
	for k, dish := range referenceMenu {
		menu[k] = MenuItem{
			ID:          fmt.Sprintf("item_%d_%d", position, k+1),
			Name:        dish.name,
			Description: dish.description,
			Price:       decimal.NewFromInt(dish.price),
		}
	}
	rating := ratingFloor.Add(ratingSpan.Mul(decimal.NewFromFloat(rng.Float64()))).Round(1)
	return Restaurant{
		ID:        RestaurantID(region.Prefix, seq),
		Name:      name,
		Region:    region.Name,
		Subregion: subregion,
		Address:   fmt.Sprintf("%s, %s", referenceAreas[position%len(referenceAreas)], subregion),
		Rating:    rating,
		Menu:      menu,
	}
}

type sampleAccount struct {
	username, password, email, phone string
	role                             domain.Role
}

var sampleAccounts = []sampleAccount{
	{"admin1", "Admin@123", "admin@foodbike.com", "01234567890", domain.RoleAdmin},
	{"user1", "User@123", "user@foodbike.com", "01987654321", domain.RoleCustomer},
	{"entrepreneur1", "Entrepreneur@123", "ent@foodbike.com", "01111111111", domain.RoleRestaurantOperator},
	{"courier1", "Courier@123", "courier@foodbike.com", "01555555555", domain.RoleCourier},
}
