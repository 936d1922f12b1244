package code

import "fmt"

// Opaque handle of a VM object whose address is only known at link time
type Constant struct {
	Name string

	// Compressed constants are referenced through 32 bit pointers
	Compressed bool
}

func (c Constant) String() string {
	if c.Compressed {
		return fmt.Sprintf("narrow(%v)", c.Name)
	}

	return c.Name
}

// Target of a patch request
type Reference interface {
	fmt.Stringer
	isReference()
}

// Offset into the data section of the compiled code
type DataSectionReference struct {
	Offset int
}

func (r DataSectionReference) String() string {
	return fmt.Sprintf("data+%d", r.Offset)
}

func (DataSectionReference) isReference() {}

type ConstantReference struct {
	Constant Constant
}

func (r ConstantReference) String() string {
	return fmt.Sprintf("constant %v", r.Constant)
}

func (ConstantReference) isReference() {}
