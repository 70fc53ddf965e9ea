package wasmbuild

// AddWasmFunctionPointer installs fn into the host's indirect function
// table, growing it in fixed-size chunks as needed, and returns its index.
func (b *Builder) AddWasmFunctionPointer(fn any) (int, error) {
	return b.table.AddWasmFunctionPointer(fn)
}

// RemainingTableSlots returns the number of free indirect-table slots
// before the next AddWasmFunctionPointer call must grow it again.
func (b *Builder) RemainingTableSlots() int {
	return b.table.Remaining()
}
