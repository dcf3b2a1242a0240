package skkni

// Record is one normalized SKKNI competency entry. Every field is always
// present; a column missing or unmapped in the source resolves to "".
type Record struct {
	FunctionalArea     string `json:"area_fungsi"`
	OccupationCode     string `json:"kode_okupasi"`
	Occupation         string `json:"okupasi"`
	Level              string `json:"level"`
	UnitClassification string `json:"klasifikasi_uk"`
	UnitCode           string `json:"kode_uk"`
	UnitTitle          string `json:"judul_uk"`
	ElementTitle       string `json:"elemen_kompetensi"`
	CriterionTitle     string `json:"kuk"`
	CriticalAspect     string `json:"aspek_kritis"`
}

// fieldAliases maps each Record field to the canonical header keys that
// may populate it. Order matters: the first alias present in a row wins.
var fieldAliases = []struct {
	aliases []string
	assign  func(*Record, string)
}{
	{[]string{"area_fungsi_kunci", "area_fungsi"}, func(r *Record, v string) { r.FunctionalArea = v }},
	{[]string{"kode_okupasi"}, func(r *Record, v string) { r.OccupationCode = v }},
	{[]string{"okupasi"}, func(r *Record, v string) { r.Occupation = v }},
	{[]string{"level"}, func(r *Record, v string) { r.Level = v }},
	{[]string{"klasifikasi_uk", "klasifikasi"}, func(r *Record, v string) { r.UnitClassification = v }},
	{[]string{"kode_uk"}, func(r *Record, v string) { r.UnitCode = v }},
	{[]string{"judul_uk"}, func(r *Record, v string) { r.UnitTitle = v }},
	{[]string{"judul_ek", "elemen_kompetensi"}, func(r *Record, v string) { r.ElementTitle = v }},
	{[]string{"judul_kuk", "kuk"}, func(r *Record, v string) { r.CriterionTitle = v }},
	{[]string{"aspek_kritis"}, func(r *Record, v string) { r.CriticalAspect = v }},
}

// project turns a canonical-key row into a Record via the alias table.
func project(row map[string]string) Record {
	var rec Record
	for _, f := range fieldAliases {
		for _, alias := range f.aliases {
			if v, ok := row[alias]; ok {
				f.assign(&rec, v)
				break
			}
		}
	}
	return rec
}
