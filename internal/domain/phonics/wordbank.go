package phonics

// wordBanks holds example words per pattern, indexed by grade (K first).
// Only patterns known to the catalog have a bank.
var wordBanks = map[string][7][]string{
	"sh": {
		{"she"},
		{"shop", "ship", "fish", "wish"},
		{"shell", "shine", "flash", "brush", "fresh", "splash", "rush"},
		{"foolish", "selfish", "bashful", "sunshine", "marshmallow"},
		{"accomplish", "establish", "polish", "astonish", "refreshing"},
		{"distinguished", "relationship", "scholarship", "establishment"},
		{"sophisticated", "accomplishment", "distinguishable", "refreshment"},
	},
	"ch": {
		{"chin"},
		{"chat", "chop", "much", "rich"},
		{"chair", "lunch", "reach", "beach", "teach", "branch"},
		{"chapter", "teacher", "kitchen", "children", "sandwich"},
		{"chocolate", "mechanic", "architect", "approach", "research"},
		{"achievement", "archaeology", "technology", "architecture"},
		{"characteristic", "choreography", "chronological", "mechanical"},
	},
	"th": {
		{"the"},
		{"that", "this", "then", "with"},
		{"thing", "think", "three", "thank", "path", "math"},
		{"brother", "mother", "father", "nothing", "something"},
		{"together", "weather", "although", "birthday", "everything"},
		{"mathematics", "throughout", "strengthen", "enthusiasm"},
		{"authentication", "mathematician", "hypothetical", "sympathetic"},
	},
	"wh": {
		nil,
		{"what", "when", "why"},
		{"where", "white", "whale", "wheel", "while"},
		{"whisper", "whistle", "whether", "somewhere"},
		{"meanwhile", "whenever", "wherever", "overwhelm"},
		{"overwhelmed", "overwhelming", "worthwhile"},
		{"whereabouts", "overwhelmingly", "worthwhileness"},
	},
	"ph": {
		nil,
		nil,
		{"phone"},
		{"photo", "graph", "elephant"},
		{"paragraph", "telephone", "alphabet", "photograph"},
		{"geography", "biography", "philosophy", "symphony"},
		{"photographer", "philosophical", "autobiography", "sophisticated"},
	},

	"bl": {
		nil,
		{"blue", "blow"},
		{"black", "block", "bloom", "blend", "blank"},
		{"blanket", "problem", "trouble", "grumble"},
		{"blizzard", "emblem", "incredible", "responsible"},
		{"reasonable", "horrible", "terrible"},
		{"unbelievable", "irresponsible", "uncomfortable"},
	},
	"br": {
		nil,
		{"brown"},
		{"bring", "brave", "bright", "bread", "break"},
		{"brother", "breathe", "breakfast", "library"},
		{"celebrate", "remember", "October", "November"},
		{"celebration", "abbreviation"},
		{"extraordinary", "embraceable"},
	},
	"cl": {
		nil,
		{"clap"},
		{"class", "clean", "close", "clock", "cloud"},
		{"clothes", "climb", "include", "uncle"},
		{"bicycle", "article", "particle"},
		{"include", "conclude", "exclusive"},
		{"exclusively", "including", "concluding"},
	},
	"dr": {
		nil,
		{"drum", "drop"},
		{"drink", "drive", "dream"},
		{"dragon", "drawer", "dread"},
		{"address", "drastic", "dribble"},
		{"hydraulic", "dreadful", "dramatize"},
		{"dramatically", "hydraulics", "overdramatize"},
	},
	"fr": {
		nil,
		{"frog", "from"},
		{"free", "fresh", "friend"},
		{"frozen", "fright", "fringe"},
		{"framework", "fragrance", "friction"},
		{"infrastructure", "frustration", "fractional"},
		{"reconfiguration", "fractionation", "frictionless"},
	},
	"gr": {
		nil,
		{"green", "grab"},
		{"great", "grass", "grow"},
		{"ground", "grape", "grind"},
		{"graduate", "grammar", "grumble"},
		{"aggregation", "gratitude", "gravitate"},
		{"congratulations", "gravitational", "aggregation"},
	},
	"pr": {
		nil,
		{"prize", "print"},
		{"press", "proud", "prove"},
		{"problem", "protect", "promise"},
		{"progress", "project", "process"},
		{"provision", "promotion", "proportion"},
		{"procrastination", "pronunciation", "proliferation"},
	},
	"tr": {
		nil,
		{"tree", "trip"},
		{"train", "trap", "true"},
		{"treat", "track", "trade"},
		{"transport", "translate", "transform"},
		{"transmission", "transition", "transaction"},
		{"transcontinental", "transformation", "transfiguration"},
	},

	"ai": {
		nil,
		nil,
		{"rain", "pain", "main", "train", "brain"},
		{"explain", "remain", "afraid", "captain"},
		{"mountain", "fountain", "certain", "curtain"},
		{"maintain", "complain", "sustain", "obtain"},
		{"entertainment", "ascertainment", "mountains"},
	},
	"ay": {
		nil,
		{"day", "say", "way", "may", "play"},
		{"today", "away", "always", "maybe", "birthday"},
		{"yesterday", "holiday", "everyday", "anyway"},
		{"Wednesday", "Saturday", "February", "January"},
		{"anniversary", "extraordinary", "missionary"},
		{"contemporary", "revolutionary", "extraordinary"},
	},
	"oa": {
		nil,
		{"boat", "coat", "road"},
		{"coach", "float", "throat"},
		{"approach", "oatmeal", "goalpost"},
		{"overload", "boasting", "coasting"},
		{"floatation", "overcoat", "broadcoat"},
		{"undercoating", "overboasting", "goalkeeping"},
	},
	"oe": {
		nil,
		{"toe"},
		{"foe", "hoe", "doe"},
		{"goes", "heroes", "oboe"},
		{"overthrow", "foreclose", "toeprint"},
		{"foreboding", "foregoing", "foretold"},
		{"foreknowledge", "foreordination", "foreclosure"},
	},
	"ie": {
		nil,
		{"pie", "tie"},
		{"die", "lie", "vie"},
		{"chief", "thief", "brief"},
		{"belief", "relief", "achieve"},
		{"achievement", "grievance", "retrieval"},
		{"misbelief", "unbelievable", "perceivable"},
	},
	"ee": {
		nil,
		{"see", "bee", "tree"},
		{"keep", "sleep", "green", "three", "free"},
		{"thirteen", "fourteen", "fifteen", "between"},
		{"agreement", "seventeen", "eighteen", "nineteen"},
		{"committee", "guarantee", "volunteer", "engineering"},
		{"engineering", "disagreement", "volunteering"},
	},
	"ea": {
		nil,
		nil,
		{"eat", "sea", "tea", "read", "meat"},
		{"teacher", "feature", "creature", "treasure"},
		{"breakfast", "weather", "sweater", "feather"},
		{"treatment", "agreement", "measurement", "achievement"},
		{"entertainment", "disagreement", "rearrangement"},
	},
	"ui": {
		nil,
		nil,
		{"fruit", "suit"},
		{"juice", "bruise", "pursuit"},
		{"circuit", "cruise", "suitable"},
		{"pursuing", "suitcase", "fruitful"},
		{"circuitous", "unsuitable", "recruitment"},
	},

	"ou": {
		nil,
		{"out", "our"},
		{"house", "mouse", "found"},
		{"flower", "shout", "cloud"},
		{"powerful", "allowance", "trouble"},
		{"pronounce", "announce", "renounce"},
		{"mispronounce", "announcement", "renouncement"},
	},
	"ow": {
		nil,
		{"cow", "how", "now"},
		{"brown", "down", "town"},
		{"flower", "shower", "power"},
		{"allow", "endow", "bestow"},
		{"disallow", "overthrow", "withdrew"},
		{"foreshadow", "overpower", "disempower"},
	},
	"oi": {
		nil,
		{"oil", "boil"},
		{"coin", "join", "point"},
		{"voice", "choice", "spoil"},
		{"appoint", "rejoice", "avoid"},
		{"appointment", "disjointed", "loyalty"},
		{"reappointment", "unavoidable", "disloyalty"},
	},
	"oy": {
		nil,
		{"boy", "toy"},
		{"joy", "enjoy", "ploy"},
		{"royal", "loyal", "annoy"},
		{"employ", "destroy", "deploy"},
		{"employment", "enjoyment", "deployment"},
		{"redeployment", "unemployment", "overjoyed"},
	},
	"au": {
		nil,
		{"aunt", "auto"},
		{"author", "haul", "fault"},
		{"autumn", "pause", "cause"},
		{"laundry", "auction", "audience"},
		{"automatic", "autograph", "auditory"},
		{"automation", "authorization", "autonomous"},
	},
	"aw": {
		nil,
		{"saw", "paw"},
		{"draw", "straw", "claw"},
		{"crawl", "lawn", "yawn"},
		{"awkward", "lawyer", "flawless"},
		{"outlawed", "withdrawal", "overaw"},
		{"foresaw", "outlawing", "withdrawals"},
	},

	"ar": {
		nil,
		{"car", "far", "arm"},
		{"park", "farm", "star", "hard", "start"},
		{"garden", "market", "partner", "apartment"},
		{"particular", "ordinary", "barbarian"},
		{"remarkable", "regarding", "apparatus"},
		{"extraordinary", "particularly", "apparatus"},
	},
	"er": {
		nil,
		nil,
		{"her", "over", "under", "after", "water"},
		{"sister", "brother", "mother", "father", "other"},
		{"however", "remember", "together", "another"},
		{"nevertheless", "temperature", "different"},
		{"refrigerator", "temperature", "nevertheless"},
	},
	"ir": {
		nil,
		nil,
		{"bird", "girl", "first", "dirt"},
		{"shirt", "third", "birthday", "circle"},
		{"thirteen", "thirty", "confirm", "Birmingham"},
		{"circulate", "circumstance", "Birmingham"},
		{"circulation", "circumstances", "Birmingham"},
	},
	"or": {
		nil,
		{"for", "or"},
		{"more", "store", "door", "floor", "four"},
		{"before", "morning", "important", "story"},
		{"therefore", "explore", "support", "record"},
		{"enormous", "performance", "transformed", "information"},
		{"extraordinary", "performance", "transformed"},
	},
	"ur": {
		nil,
		nil,
		{"turn", "burn", "hurt", "fur"},
		{"during", "return", "turtle", "purple"},
		{"furniture", "adventure", "picture"},
		{"temperature", "cultural", "capture"},
		{"architectural", "agricultural", "cultural"},
	},
}
