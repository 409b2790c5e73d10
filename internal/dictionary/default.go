package dictionary

// DefaultSpec returns the built-in English to Malay table. Label order matches
// the class indices of the bundled sign classifier.
func DefaultSpec() Spec {
	return Spec{
		SourceLanguage: "en",
		TargetLanguage: "ms",
		Labels: []Label{
			"A", "B", "C", "D", "E", "F", "G", "H", "I", "J",
			"K", "L", "M", "N", "O", "P", "Q", "R", "S",
			"T", "U", "V", "W", "X", "Y", "Z_0", "Z_1",
			"How are you?", "Waalaikumussalam", "Hello", "I'm fine",
			"Excuse me", "Sorry", "Salam", "Regards", "You're welcome",
			"Well", "Come", "Birthday", "Goodbye", "Night",
			"Morning", "Please (Welcome)", "Thank you", "Please (Help)",
		},
		Translations: map[Label]string{
			"Z_0":              "Z",
			"Z_1":              "Z",
			"How are you?":     "Apa khabar?",
			"Waalaikumussalam": "Waalaikumussalam",
			"Hello":            "Helo",
			"I'm fine":         "Khabar baik",
			"Excuse me":        "Maaf",
			"Sorry":            "Maaf",
			"Salam":            "Salam",
			"Regards":          "Salam",
			"You're welcome":   "Sama-sama",
			"Well":             "Selamat",
			"Come":             "Datang",
			"Birthday":         "Hari Jadi",
			"Goodbye":          "Selamat Jalan",
			"Night":            "Malam",
			"Morning":          "Pagi",
			"Please (Welcome)": "Sila",
			"Thank you":        "Terima Kasih",
			"Please (Help)":    "Tolong",
			"Assalamualaikum":  "Assalamualaikum",
			"Good Morning":     "Selamat Pagi",
			"Good Night":       "Selamat Malam",
			"Happy Birthday":   "Selamat Hari Jadi",
			"Welcome":          "Selamat Datang",
		},
		Hidden: []Label{"How are you?"},
		Modifiers: map[Label]Label{
			"J":                "I",
			"Please (Welcome)": "Goodbye",
		},
		Activators: []Activator{
			{Previous: "Hello", Current: "Waalaikumussalam", Result: "Assalamualaikum"},
			{Previous: "Well", Current: "Morning", Result: "Good Morning"},
			{Previous: "Well", Current: "Night", Result: "Good Night"},
			{Previous: "Well", Current: "Birthday", Result: "Happy Birthday"},
			{Previous: "Well", Current: "Come", Result: "Welcome"},
			{Previous: "How are you?", Current: "I'm fine", Result: "How are you?"},
		},
	}
}

// Default returns the built-in dictionary.
func Default() *Dictionary {
	d, err := New(DefaultSpec())
	if err != nil {
		panic("dictionary: built-in table invalid: " + err.Error())
	}
	return d
}
