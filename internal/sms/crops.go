package sms

import "strings"

// cropNames maps common Amharic crop names to the English term used for
// image prompts and search.
var cropNames = map[string]string{
	"ጤፍ":       "Teff",
	"ስንዴ":      "Wheat",
	"በቆሎ":      "Maize",
	"ገብስ":      "Barley",
	"ማሽላ":      "Sorghum",
	"ዳጉሳ":      "Finger millet",
	"አጃ":       "Oats",
	"ባቄላ":      "Faba bean",
	"ሽምብራ":     "Chickpea",
	"ምስር":      "Lentil",
	"አተር":      "Field pea",
	"ቦሎቄ":      "Haricot bean",
	"ኑግ":       "Niger seed",
	"ሰሊጥ":      "Sesame",
	"ተልባ":      "Linseed",
	"ቡና":       "Coffee",
	"ድንች":      "Potato",
	"ሽንኩርት":    "Onion",
	"ነጭ ሽንኩርት": "Garlic",
	"ቲማቲም":     "Tomato",
	"ጎመን":      "Cabbage",
	"ካሮት":      "Carrot",
	"ቃሪያ":      "Green pepper",
	"በርበሬ":     "Red pepper",
	"ሙዝ":       "Banana",
	"ብርቱካን":    "Orange",
	"ማንጎ":      "Mango",
	"አቮካዶ":     "Avocado",
	"ማር":       "Honey",
}

// EnglishCropName returns the English name of a known crop. Unknown names
// are returned unchanged with ok == false.
func EnglishCropName(name string) (english string, ok bool) {
	key := strings.Join(strings.Fields(name), " ")
	if english, ok := cropNames[key]; ok {
		return english, true
	}
	return name, false
}
