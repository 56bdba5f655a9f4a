package catalog

// Built-in violation database for Article 11 housing inspections.
var builtinEntries = map[string]Entry{
	// Vectors and pests.
	"rodent": {
		Code:       "Sec 581(b)(13)",
		Title:      "Rodent Infestation",
		Condition:  "Evidence of rodent activity (burrows, droppings, rub marks) or active harborage observed.",
		Importance: "Rodent infestation poses a significant health risk due to the potential spread of diseases like Leptospirosis and Hantavirus. Rodents can also damage property and contaminate food.",
		Action:     "Seal all entry points >1/4 inch with concrete or steel mesh. Remove food sources. Install rodent-proof containers for garbage. Implement a regular pest control program.",
	},
	"rodent burrows": {
		Code:       "Sec 581(b)(13)",
		Title:      "Rodent Burrows (Infestation)",
		Condition:  "Active rodent burrows observed in soil, planters, or exterior grounds.",
		Importance: "Burrows indicate an established rodent population nesting on the property, posing immediate health risks.",
		Action:     "Collapse burrows after treatment. Install exclusion barriers (wire mesh) in planters. Contract licensed pest control to treat the exterior grounds.",
	},
	"frass": {
		Code:       "Sec 581(b)(8)",
		Title:      "Insect Frass (Excrement)",
		Condition:  "Accumulation of insect frass (droppings) observed on surfaces.",
		Importance: "Frass indicates an active infestation of wood-destroying or vector insects (like cockroaches or termites). It can contaminate surfaces and degrade air quality.",
		Action:     "Clean and sanitize all affected surfaces. Identify the insect source and implement targeted pest control treatment.",
	},
	"cockroach": {
		Code:       "Sec 581(b)(8)",
		Title:      "Cockroach Infestation",
		Condition:  "Live/dead cockroaches, frass, or egg cases observed.",
		Importance: "Cockroaches carry bacteria and allergens that can trigger asthma and transmit diseases like Salmonella and E. coli.",
		Action:     "Deep clean to remove grease and food residue. Seal cracks/crevices. Apply gel baits per IPM guidelines. Eliminate moisture sources.",
	},
	"bed bug": {
		Code:       "Sec 581(b)(8)",
		Title:      "Bed Bug Infestation",
		Condition:  "Live bed bugs, cast skins, or fecal spotting observed on bedding or furniture.",
		Importance: "Bed bugs cause physical discomfort, allergic reactions, and significant psychological distress to residents.",
		Action:     "Launder all linens/clothing on high heat. Steam clean furniture. Employ a licensed PCO for chemical/heat treatment of the unit and adjacent units.",
	},
	"fly": {
		Code:       "Sec 581(b)(8)",
		Title:      "Noxious Insect Harborage (Flies)",
		Condition:  "Accumulation of fly frass (fly excrement) or excessive fly activity observed.",
		Importance: "Flies can transmit pathogens like Salmonella and Shigella to food and surfaces.",
		Action:     "Thoroughly clean and sanitize surfaces affected by fly frass. Identify and eliminate breeding sources (e.g. unsealed garbage). Install screens.",
	},
	"mosquitoes": {
		Code:       "Sec 581(b)(8)",
		Title:      "Mosquito Breeding Hazard",
		Condition:  "Standing water observed supporting mosquito larvae breeding.",
		Importance: "Mosquitoes are vectors for diseases such as West Nile Virus and Zika Virus.",
		Action:     "Drain standing water immediately. Maintain drains/gutters to prevent accumulation. Install screens on windows/doors.",
	},
	"pigeon": {
		Code:       "Sec 581(b)(7)",
		Title:      "Pigeon Harborage",
		Condition:  "Accumulation of pigeon guano, nesting materials, or roosting observed.",
		Importance: "Pigeon guano can harbor fungal spores (Histoplasmosis) and parasites.",
		Action:     "Remove all nesting materials and guano using proper PPE. Install exclusion devices (netting, spikes) to prevent roosting.",
	},

	// Sanitation.
	"uncontainerized garbage": {
		Code:       "Sec 581(b)(1)",
		Title:      "Uncontainerized Garbage",
		Condition:  "Loose, unbagged, or exposed garbage observed outside of approved containers.",
		Importance: "Uncontainerized garbage provides an easily accessible food source for rodents and vectors, rapidly increasing infestation rates.",
		Action:     "Place all loose garbage into approved, tight-fitting lidded containers immediately. Clean the surrounding area of debris.",
	},
	"garbage": {
		Code:       "Sec 581(b)(1)",
		Title:      "Accumulation of Garbage/Refuse",
		Condition:  "Accumulated refuse, debris, or loose garbage observed.",
		Importance: "Excessive garbage accumulation attracts pests (rodents, insects), creates unsanitary conditions, and can lead to vector-borne diseases.",
		Action:     "Regularly remove all trash. Store it in sealed, tight-fitting containers. Ensure proper disposal according to local regulations.",
	},
	"paper": {
		Code:       "Sec 581(b)(3)",
		Title:      "Accumulation of Paper Materials",
		Condition:  "Excessive stacking of paper/combustibles creating fire hazard or pest harborage.",
		Importance: "Paper accumulation provides nesting material for rodents and creates a fire hazard.",
		Action:     "Remove excessive paper materials. Organize remaining items to eliminate pest harborage and fire risks.",
	},
	"excessive": {
		Code:       "Sec 581(b)(18)",
		Title:      "Excessive Materials (Hoarding)",
		Condition:  "Accumulation of items obstructing egress or preventing sanitary maintenance.",
		Importance: "Clutter prevents proper cleaning, allows pests to hide, and blocks emergency exits.",
		Action:     "Reduce clutter to allow for cleaning and pest control access. Ensure clear paths of egress.",
	},
	"waste": {
		Code:       "Sec 581(b)(5)",
		Title:      "Contamination by Human/Animal Waste",
		Condition:  "Accumulation of feces observed.",
		Importance: "Fecal matter contains pathogens and parasites that pose a direct threat to human health.",
		Action:     "Immediately remove and properly dispose of all waste. Sanitize the affected area. Implement a maintenance schedule.",
	},
	"poison_oak": {
		Code:       "Sec 581(b)(11)",
		Title:      "Poison Oak",
		Condition:  "Poison oak observed in areas accessible to tenants or the public.",
		Importance: "Poison oak causes severe allergic skin reactions.",
		Action:     "Remove and properly dispose of all poison oak plants. Treat area to prevent regrowth.",
	},

	// Structural.
	"bathroom": {
		Code:       "Sec 581(b)(4)",
		Title:      "Unsanitary Bathroom/Toilet",
		Condition:  "Toilet, sink, or bathroom surfaces are unsanitary, leaking, or in disrepair.",
		Importance: "Unsanitary bathrooms can spread bacteria and mold.",
		Action:     "Repair plumbing fixtures. Seal gaps. Deep clean and sanitize all bathroom surfaces.",
	},
	"kitchen": {
		Code:       "Sec 581(b)(4)",
		Title:      "Unsanitary Common Kitchen",
		Condition:  "Kitchen surfaces, equipment, or floors are soiled.",
		Importance: "Soiled kitchens attract pests and cause foodborne illness.",
		Action:     "Degrease and sanitize all kitchen surfaces, behind equipment, and floors.",
	},
	"surfaces": {
		Code:       "Sec 581(b)(1)",
		Title:      "Unsanitary Floor, Walls, & Ceiling",
		Condition:  "Surfaces are damaged, soiled, or peeling.",
		Importance: "Damaged surfaces cannot be properly cleaned and may harbor pests or mold.",
		Action:     "Repair damaged surfaces to be smooth and cleanable. Repaint or seal as necessary.",
	},
	"mold": {
		Code:       "Sec 581(b)(6)",
		Title:      "Mold Growth",
		Condition:  "Visible mold growth observed on walls, ceilings, or fixtures.",
		Importance: "Mold exposure can cause respiratory problems, allergic reactions, and other health issues, particularly for vulnerable populations.",
		Action:     "Remove all mold. Clean and disinfect the area. Ensure proper ventilation. Identify and repair the underlying moisture source.",
	},
	"hallways": {
		Code:       "Sec 581(b)(5)",
		Title:      "Unsanitary Hallways",
		Condition:  "Common hallways are soiled, obstructed, or in disrepair.",
		Importance: "Unsanitary hallways affect quality of life and can harbor allergens.",
		Action:     "Clean carpets/floors. Remove obstructions. Maintain hallways in a sanitary condition.",
	},
	"vents": {
		Code:       "Sec 581(b)(1)",
		Title:      "Structural Harborage (Broken Vent/Screen)",
		Condition:  "Broken vents or screens observed allowing potential pest entry.",
		Importance: "Open vents provide direct entry points for rodents and insects.",
		Action:     "Repair or replace damaged vents/screens with 1/4 inch mesh to prevent pest entry.",
	},
}

var builtinChecklist = []ChecklistGroup{
	{
		Name: "Pests & Vectors",
		Items: []ChecklistItem{
			{ID: "rodent", Label: "Rodents (Sec 581(b)(13))"},
			{ID: "cockroach", Label: "Cockroaches (Sec 581(b)(8))"},
			{ID: "bedbug", Label: "Bed Bugs (Sec 581(b)(8))"},
			{ID: "flies", Label: "Flies (Sec 581(b)(8))"},
			{ID: "mosquitoes", Label: "Mosquitoes (Sec 581(b)(8))"},
			{ID: "pigeons", Label: "Pigeons (Sec 581(b)(7))"},
		},
	},
	{
		Name: "Sanitation",
		Items: []ChecklistItem{
			{ID: "garbage_area", Label: "Garbage Area (Sec 581(b)(1))"},
			{ID: "refuse", Label: "Refuse Accumulation (Sec 581(b)(5))"},
			{ID: "paper", Label: "Accum. Paper Materials (Sec 581(b)(3))"},
			{ID: "excessive", Label: "Excessive Materials (Sec 581(b)(18))"},
			{ID: "waste", Label: "Human/Animal Waste (Sec 581(b)(1))"},
			{ID: "poison_oak", Label: "Poison Oak (Sec 581(b)(11))"},
		},
	},
	{
		Name: "Structural",
		Items: []ChecklistItem{
			{ID: "bathroom", Label: "Unsanitary Bathroom (Sec 581(b)(4))"},
			{ID: "kitchen", Label: "Unsanitary Kitchen (Sec 581(b)(4))"},
			{ID: "surfaces", Label: "Unsanitary Walls/Floors (Sec 581(b)(1))"},
			{ID: "mold", Label: "Mold Growth (Sec 581(b)(6))"},
			{ID: "hallways", Label: "Unsanitary Hallways (Sec 581(b)(5))"},
			{ID: "vents", Label: "Broken Vents/Screens (Sec 581(b)(1))"},
		},
	},
}

var builtinAreas = []string{
	"Alleyway/Easement", "Basement", "Front/Backyard", "Garage/Driveway",
	"Garbage Area", "Hallways", "Laundry Room", "Lightwells",
	"Lobby", "Roof", "Staircase", "Bathroom", "Kitchen", "Unit(s)",
}

var builtinTags = []string{
	"Rodent Burrows", "Frass", "Uncontainerized Garbage",
	"Rodent", "Cockroach", "Mold", "Leaking Pipe", "Broken Window",
	"Animal Waste", "Overgrown Vegetation", "Fly", "Bed Bug", "Hole in Wall",
}
