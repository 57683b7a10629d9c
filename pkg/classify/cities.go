package classify

// Closed city dictionaries. Partitioned into African and global sets so the
// planner can route to the Africa-specialized provider. Lowercase keys;
// multi-word names are matched before single words.
//
// The African list is weighted toward cities with AirQo/low-cost sensor
// coverage; the global list toward cities with reference-grade monitors.

var africanCities = []string{
	"addis ababa",
	"dar es salaam",
	"port harcourt",
	"cape town",
	"abuja",
	"accra",
	"algiers",
	"bamako",
	"bujumbura",
	"cairo",
	"casablanca",
	"dakar",
	"durban",
	"entebbe",
	"gulu",
	"harare",
	"ibadan",
	"jinja",
	"johannesburg",
	"kampala",
	"kano",
	"khartoum",
	"kigali",
	"kinshasa",
	"kisumu",
	"kumasi",
	"lagos",
	"lilongwe",
	"lusaka",
	"maputo",
	"mbarara",
	"mombasa",
	"mwanza",
	"nairobi",
	"niamey",
	"ouagadougou",
	"pretoria",
	"tunis",
	"yaounde",
}

// AfricanCityNames returns the African dictionary (lowercase). Callers
// must not mutate the returned slice.
func AfricanCityNames() []string {
	return africanCities
}

var globalCities = []string{
	"los angeles",
	"mexico city",
	"new delhi",
	"new york",
	"san francisco",
	"sao paulo",
	"amsterdam",
	"bangkok",
	"barcelona",
	"beijing",
	"berlin",
	"chicago",
	"delhi",
	"dhaka",
	"dubai",
	"hanoi",
	"istanbul",
	"jakarta",
	"karachi",
	"lahore",
	"london",
	"madrid",
	"manila",
	"moscow",
	"mumbai",
	"paris",
	"rome",
	"seoul",
	"shanghai",
	"singapore",
	"sydney",
	"tokyo",
	"toronto",
	"vienna",
	"warsaw",
}
