package extract

// FieldRecord is the normalized shape every extraction source produces.
// A slot is either empty ("" = not yet known) or holds a value in its
// canonical format: birth_date is YYYY-MM-DD, sex is "M" or "F", country
// is the canonical English country name.
type FieldRecord struct {
	Surname        string `json:"surname"`
	GivenName      string `json:"given_name"`
	BirthDate      string `json:"birth_date"`
	Sex            string `json:"sex"`
	Country        string `json:"country"`
	City           string `json:"city"`
	DocumentNumber string `json:"document_number"`
}

// IsEmpty reports whether no slot has been populated.
func (r FieldRecord) IsEmpty() bool {
	return r == FieldRecord{}
}

// Populated returns the number of non-empty slots.
func (r FieldRecord) Populated() int {
	n := 0
	for _, v := range r.slots() {
		if *v != "" {
			n++
		}
	}
	return n
}

// Overwrite copies every non-empty slot of src over r, replacing whatever
// was there. Used for higher-trust sources.
func (r *FieldRecord) Overwrite(src FieldRecord) {
	dst, from := r.slots(), src.slots()
	for i := range dst {
		if *from[i] != "" {
			*dst[i] = *from[i]
		}
	}
}

// FillEmpty copies every non-empty slot of src into r only where r is still
// empty. Used for lower-trust sources.
func (r *FieldRecord) FillEmpty(src FieldRecord) {
	dst, from := r.slots(), src.slots()
	for i := range dst {
		if *dst[i] == "" && *from[i] != "" {
			*dst[i] = *from[i]
		}
	}
}

func (r *FieldRecord) slots() [7]*string {
	return [7]*string{
		&r.Surname,
		&r.GivenName,
		&r.BirthDate,
		&r.Sex,
		&r.Country,
		&r.City,
		&r.DocumentNumber,
	}
}

// DocumentType is the classifier's verdict for one OCR pass.
type DocumentType string

const (
	DocPassport   DocumentType = "passport"
	DocNationalID DocumentType = "national-id"
)
