package schema

import "sort"

func num(x float64) *float64 { return &x }

var (
	optionsRang       = []string{"1-2", "3-4", "5-6", "7-8", "9-10", "11-12", "13-14", "15-16", "17-18", "19-20", "21-22", "23-24"}
	optionsTraitement = []string{"Lumière", "Ombre"}
)

func dateField() Field {
	return Field{Name: "date", Label: "Date de la mesure", Kind: KindDate, Required: true}
}

func timeField() Field {
	return Field{Name: "heure", Label: "Heure de la mesure", Kind: KindTime, Required: true}
}

func plantField() Field {
	return Field{Name: "plante_ID", Label: "ID plante (1-20)", Kind: KindInteger, Required: true, Min: num(1), Max: num(20), Step: "1"}
}

func traitementField() Field {
	return Field{Name: "traitement", Label: "Traitement", Kind: KindSelect, Required: true, Options: optionsTraitement}
}

func remarqueField() Field {
	return Field{Name: "remarque", Label: "Remarque", Kind: KindText}
}

func decimal(name, label string, required bool, step string) Field {
	return Field{Name: name, Label: label, Kind: KindDecimal, Required: required, Step: step}
}

func sunflowerField() Field {
	return Field{
		Name: "plante_ID", Label: "Votre tournesol", Kind: KindLookup, Required: true,
		Source: "inscription", SourceColumn: "plante_ID",
	}
}

var eau = Schema{
	Key:      "eau",
	Label:    "poromètre",
	Title:    "Poromètre : ajouter une mesure",
	Resource: "url_eau",
	Fields: []Field{
		dateField(),
		timeField(),
		{Name: "rang_f", Label: "Rang de la feuille", Kind: KindSelect, Required: true, Options: optionsRang},
		{Name: "état_f", Label: "État de la feuille", Kind: KindSelect, Required: true, Options: []string{"Bien développée", "Jeune", "Vieille"}},
		{Name: "pos_f", Label: "Position sur le limbe", Kind: KindSelect, Required: true, Options: []string{"Base", "Milieu", "Pointe"}},
		{Name: "face_f", Label: "Face de la feuille", Kind: KindSelect, Required: true, Options: []string{"Abaxiale", "Adaxiale"}},
		decimal("cond", "Conductance stomatique (mmol/m².s)", true, "0.01"),
		decimal("PAR", "PAR (µmol/m².s)", false, "0.01"),
		remarqueField(),
	},
}

var irga = Schema{
	Key:      "irga",
	Label:    "IRGA",
	Title:    "IRGA : ajouter une mesure",
	Resource: "url_irga",
	Fields: []Field{
		dateField(),
		timeField(),
		plantField(),
		{Name: "CO2_in", Label: "CO2 in (ppm)", Kind: KindInteger, Required: true, Step: "1"},
		{Name: "CO2_out", Label: "CO2 out (ppm)", Kind: KindInteger, Required: true, Step: "1"},
		decimal("H2O_in", "H2O in (mbar)", true, "0.1"),
		decimal("H2O_out", "H2O out (mbar)", true, "0.1"),
		decimal("PAR", "PAR (Qleaf) (µmol/m².s)", true, "0.01"),
		decimal("pression", "Pression (bar)", true, "0.01"),
		decimal("temp", "Température (°C)", true, "0.1"),
		decimal("flux_air", "Flux d'air (U) (µmol/s)", true, "0.01"),
		decimal("A", "A (µmol/m².s)", true, "0.01"),
		decimal("E", "E (mmol/m².s)", true, "0.01"),
		traitementField(),
		remarqueField(),
	},
}

var poro = Schema{
	Key:      "poro",
	Label:    "poromètre",
	Title:    "Poromètre : ajouter une mesure",
	Resource: "url_poro",
	Fields: []Field{
		dateField(),
		timeField(),
		plantField(),
		decimal("cond", "Conductance stomatique (µmol/m².s)", true, "0.1"),
		decimal("PAR", "PAR (µmol/m².s)", true, "0.01"),
		{Name: "type_appareil", Label: "Appareil", Kind: KindSelect, Required: true, Options: []string{"Lent", "Rapide"}},
		traitementField(),
		remarqueField(),
	},
}

var croissance = Schema{
	Key:      "croissance",
	Label:    "croissance",
	Title:    "Croissance : ajouter une mesure",
	Resource: "url_croissance",
	Fields: []Field{
		dateField(),
		timeField(),
		plantField(),
		decimal("hauteur_tige", "Hauteur de la tige (cm)", true, "0.1"),
		{Name: "n_feuilles", Label: "Nombre de feuilles", Kind: KindInteger, Required: true, Min: num(0), Step: "1"},
		traitementField(),
		remarqueField(),
	},
}

var fluo = Schema{
	Key:      "fluo",
	Label:    "fluorimètre",
	Title:    "Fluorimètre : ajouter une mesure",
	Resource: "url_fluo",
	Fields: []Field{
		dateField(),
		timeField(),
		plantField(),
		traitementField(),
		decimal("Y_II", "Y_II", true, "0.001"),
		decimal("Fv/Fm", "Fv/Fm", false, "0.001"),
		decimal("Y(NPQ)", "Y(NPQ)", false, "0.001"),
		decimal("Y(NO)", "Y(NO)", false, "0.001"),
		{Name: "act_PAR", Label: "Actinic PAR", Kind: KindInteger, Step: "1"},
		remarqueField(),
	},
}

var inscription = Schema{
	Key:      "inscription",
	Label:    "inscription",
	Title:    "Inscription de votre tournesol",
	Resource: "inscription",
	Fields: []Field{
		{Name: "date", Label: "Date de semis", Kind: KindDate, Required: true},
		{
			Name: "NOMA", Label: "NOMA", Kind: KindLookup, Required: true,
			Source: "listing_etudiants", SourceColumn: "NOMA",
		},
		{Name: "second_tournesol", Label: "Second tournesol (le premier est mort)", Kind: KindCheckbox, InputOnly: true},
		{
			Name: "plante_ID", Label: "ID plante", Kind: KindDerived,
			Derive: func(values map[string]string) string {
				return PlantID(values["NOMA"], values["second_tournesol"] != "")
			},
		},
		remarqueField(),
	},
}

var piece = Schema{
	Key:      "piece",
	Label:    "pièce",
	Title:    "Caractéristiques de la pièce",
	Resource: "piece",
	Fields: []Field{
		{Name: "date", Label: "Date", Kind: KindDate, Required: true},
		sunflowerField(),
		{Name: "type_piece", Label: "Pièce", Kind: KindSelect, Required: true, Options: []string{"Chambre", "Salon", "Bureau", "Cuisine", "Autre"}},
		{Name: "orientation", Label: "Orientation de la fenêtre", Kind: KindSelect, Required: true, Options: []string{"Nord", "Est", "Sud", "Ouest"}},
		{Name: "distance_fenetre", Label: "Distance à la fenêtre (cm)", Kind: KindDecimal, Required: true, Min: num(0), Step: "1"},
		decimal("temp_moyenne", "Température moyenne (°C)", false, "0.5"),
		{Name: "chauffage", Label: "Chauffage", Kind: KindSelect, Options: []string{"Oui", "Non"}},
		remarqueField(),
	},
}

var obsPlante = Schema{
	Key:      "obs_plante",
	Label:    "observations plante",
	Title:    "Observation hebdomadaire de la plante",
	Resource: "obs_plante",
	Fields: []Field{
		{Name: "date", Label: "Date de l'observation", Kind: KindDate, Required: true},
		sunflowerField(),
		{Name: "hauteur_tige", Label: "Hauteur de la tige (cm)", Kind: KindDecimal, Required: true, Min: num(0), Step: "0.1"},
		{Name: "n_feuilles", Label: "Nombre de feuilles", Kind: KindInteger, Required: true, Min: num(0), Step: "1"},
		{Name: "stade", Label: "Stade", Kind: KindSelect, Required: true, Options: []string{"Végétatif", "Bouton floral", "Floraison", "Sénescence", "Morte"}},
		remarqueField(),
	},
}

var obsFeuille = Schema{
	Key:      "obs_feuille",
	Label:    "observations feuille",
	Title:    "Observation hebdomadaire d'une feuille",
	Resource: "obs_feuille",
	Fields: []Field{
		{Name: "date", Label: "Date de l'observation", Kind: KindDate, Required: true},
		sunflowerField(),
		{Name: "rang_f", Label: "Rang de la feuille", Kind: KindInteger, Required: true, Min: num(1), Step: "1"},
		{Name: "longueur", Label: "Longueur du limbe (cm)", Kind: KindDecimal, Required: true, Min: num(0), Step: "0.1"},
		{Name: "largeur", Label: "Largeur du limbe (cm)", Kind: KindDecimal, Required: true, Min: num(0), Step: "0.1"},
		remarqueField(),
	},
}

var catalog = map[string]Schema{}

func init() {
	for _, s := range []Schema{eau, irga, poro, croissance, fluo, inscription, piece, obsPlante, obsFeuille} {
		catalog[s.Key] = s
	}
}

// Lookup returns the schema registered under key.
func Lookup(key string) (Schema, bool) {
	s, ok := catalog[key]
	return s, ok
}

// All returns every schema sorted by key.
func All() []Schema {
	out := make([]Schema, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Tab groups the forms of one practical session.
type Tab struct {
	Key     string
	Label   string
	Schemas []string
}

var tabs = []Tab{
	{Key: "eau", Label: "TP1 : l'eau", Schemas: []string{"eau"}},
	{Key: "photo", Label: "TP5 : la photosynthèse", Schemas: []string{"irga", "poro", "croissance", "fluo"}},
	{Key: "tournesol", Label: "Votre tournesol", Schemas: []string{"inscription", "piece", "obs_plante", "obs_feuille"}},
}

func Tabs() []Tab {
	return tabs
}

func LookupTab(key string) (Tab, bool) {
	for _, t := range tabs {
		if t.Key == key {
			return t, true
		}
	}
	return Tab{}, false
}

// Resources returns every resource key a schema writes to or lists from.
func Resources() []string {
	seen := map[string]bool{}
	var out []string
	add := func(r string) {
		if r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, s := range All() {
		add(s.Resource)
		for _, f := range s.Lookups() {
			add(f.Source)
		}
	}
	sort.Strings(out)
	return out
}
