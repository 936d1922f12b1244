package registers

// Documentation metadata of a register
type RegisterDescriptor struct {
	Register Register

	// Alternative name accepted by RegisterByName (fp, lr...)
	Alias string

	// Register description (for documentation/debugging)
	Description string
}

// Returns the register name
func (d *RegisterDescriptor) Name() string {
	return d.Register.Name()
}

func (d *RegisterDescriptor) String() string {
	return d.Name()
}
