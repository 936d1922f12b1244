package code

// Output of an assembler: code and data bytes plus the side tables describing them
type CompiledCode struct {
	Name string

	// Little endian instruction words
	Code []byte

	// Constant data, addressed by DataSectionReference offsets
	Data []byte

	// Required alignment of the data section start
	DataAlignment int

	// Sites in emission order
	Sites []Site

	TotalFrameSize int

	// Slot reserved by the prologue for the deoptimization rescue value, nil if there is no prologue
	DeoptRescueSlot *StackSlot
}

// Returns the sites of a given type, in emission order
func SitesOf[T Site](cc *CompiledCode) []T {
	var result []T

	for _, site := range cc.Sites {
		if typed, ok := site.(T); ok {
			result = append(result, typed)
		}
	}

	return result
}

// Returns the sites whose position falls into the code range [begin, end)
func (cc *CompiledCode) SitesAt(begin, end int) []Site {
	var result []Site

	for _, site := range cc.Sites {
		if _, isData := site.(DataItemPatch); isData {
			continue
		}

		if site.Position() >= begin && site.Position() < end {
			result = append(result, site)
		}
	}

	return result
}

// Returns a deep copy of the compiled code
func (cc *CompiledCode) Clone() *CompiledCode {
	clone := *cc
	clone.Code = append([]byte(nil), cc.Code...)
	clone.Data = append([]byte(nil), cc.Data...)
	clone.Sites = append([]Site(nil), cc.Sites...)

	if cc.DeoptRescueSlot != nil {
		slot := *cc.DeoptRescueSlot
		clone.DeoptRescueSlot = &slot
	}

	return &clone
}
