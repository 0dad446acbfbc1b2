package domain

import "strings"

// RestaurantsPerSubregion is the number of reference restaurants generated for
// every subregion, and the minimum each subregion must hold before the seed
// dataset is considered complete.
const RestaurantsPerSubregion = 4

// Region is a top-level area with a fixed two-letter restaurant ID prefix.
type Region struct {
	Name       string
	Prefix     string
	Subregions []string
}

// HasSubregion reports whether name is one of the region's subregions (case-insensitive).
func (r Region) HasSubregion(name string) bool {
	for _, s := range r.Subregions {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// ReferenceMax is the highest sequence number the reference dataset assigns in the region.
func (r Region) ReferenceMax() int {
	return len(r.Subregions) * RestaurantsPerSubregion
}

var regions = []Region{
	{Name: "Dhaka", Prefix: "DH", Subregions: []string{
		"Dhaka", "Gazipur", "Narayanganj", "Tangail", "Munshiganj", "Manikganj", "Narsingdi",
		"Faridpur", "Rajbari", "Gopalganj", "Madaripur", "Shariatpur", "Kishoreganj",
	}},
	{Name: "Chittagong", Prefix: "CH", Subregions: []string{
		"Chittagong", "Cox's Bazar", "Comilla", "Feni", "Brahmanbaria", "Rangamati", "Noakhali",
		"Chandpur", "Lakshmipur", "Bandarban", "Khagrachari",
	}},
	{Name: "Sylhet", Prefix: "SY", Subregions: []string{
		"Sylhet", "Moulvibazar", "Habiganj", "Sunamganj",
	}},
	{Name: "Rajshahi", Prefix: "RJ", Subregions: []string{
		"Rajshahi", "Bogra", "Pabna", "Natore", "Sirajganj", "Naogaon", "Chapainawabganj", "Joypurhat",
	}},
	{Name: "Khulna", Prefix: "KH", Subregions: []string{
		"Khulna", "Jessore", "Satkhira", "Bagerhat", "Jhenaidah", "Magura", "Narail", "Kushtia",
		"Chuadanga", "Meherpur",
	}},
	{Name: "Barisal", Prefix: "BA", Subregions: []string{
		"Barisal", "Patuakhali", "Bhola", "Pirojpur", "Jhalokati", "Barguna",
	}},
	{Name: "Rangpur", Prefix: "RP", Subregions: []string{
		"Rangpur", "Dinajpur", "Lalmonirhat", "Nilphamari", "Gaibandha", "Thakurgaon", "Panchagarh", "Kurigram",
	}},
	{Name: "Mymensingh", Prefix: "MY", Subregions: []string{
		"Mymensingh", "Jamalpur", "Netrokona", "Sherpur",
	}},
}

// Regions returns the catalog in its canonical order. The slice is a copy.
func Regions() []Region {
	out := make([]Region, len(regions))
	for i, r := range regions {
		r.Subregions = append([]string(nil), r.Subregions...)
		out[i] = r
	}
	return out
}

// LookupRegion finds a region by name (case-insensitive).
func LookupRegion(name string) (Region, bool) {
	for _, r := range regions {
		if strings.EqualFold(r.Name, strings.TrimSpace(name)) {
			return r, true
		}
	}
	return Region{}, false
}

// RegionByPrefix finds a region by its two-letter ID prefix.
func RegionByPrefix(prefix string) (Region, bool) {
	for _, r := range regions {
		if r.Prefix == prefix {
			return r, true
		}
	}
	return Region{}, false
}

// ReferenceRestaurantCount is the size of the full reference dataset.
func ReferenceRestaurantCount() int {
	total := 0
	for _, r := range regions {
		total += r.ReferenceMax()
	}
	return total
}
