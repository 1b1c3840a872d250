package doctree

// Merge merges other into v following TOML's rules for repeated table
// headers, dotted keys and arrays of tables. Both values must be tables or
// both arrays. Merge is only used while a document is being lowered.
func (v *Value) Merge(other *Value) []*Error {
	switch {
	case v.Kind == Table && other.Kind == Table:
		return v.mergeTable(other)
	case v.Kind == Array && other.Kind == Array:
		return v.mergeArray(other)
	}
	return []*Error{{Kind: ErrConflictTable, Range: v.SymbolRange, Range2: other.SymbolRange}}
}

func isInlineTable(v *Value) bool {
	return v.Kind == Table && v.TableKind == InlineTable
}

func (v *Value) mergeTable(o *Value) []*Error {
	conflict := false
	vk, ok := v.TableKind, o.TableKind
	switch {
	case vk == KeyValueTable && ok == KeyValueTable:
		for _, e := range v.Entries {
			ov := o.Get(e.Key.Name)
			if ov == nil {
				continue
			}
			if isInlineTable(e.Value) || isInlineTable(ov) {
				conflict = true
				break
			}
		}
	case (vk == HeaderTable || vk == InlineTable || vk == KeyValueTable) && (ok == HeaderTable || ok == InlineTable):
		conflict = true
	case vk == InlineTable && (ok == ParentTable || ok == ParentKey || ok == KeyValueTable):
		conflict = true
	case vk == ParentTable && ok == ParentKey:
		conflict = true
	case vk == ParentTable && (ok == HeaderTable || ok == InlineTable):
		v.TableKind = ok
	case vk == ParentKey && (ok == HeaderTable || ok == InlineTable):
		v.TableKind = ok
		conflict = true
	}
	if conflict {
		return []*Error{{Kind: ErrConflictTable, Range: v.SymbolRange, Range2: o.SymbolRange}}
	}
	v.Range = v.Range.Union(o.Range)
	v.SymbolRange = v.SymbolRange.Union(o.SymbolRange)

	var errs []*Error
	for _, oe := range o.Entries {
		errs = append(errs, v.mergeEntry(oe.Key, oe.Value, false)...)
	}
	return errs
}

// insert adds a key/value written in the document to table v. Unlike a
// header merge, assigning a second literal array to a key is a duplicate.
func (v *Value) insert(k *Key, val *Value) []*Error {
	return v.mergeEntry(k, val, true)
}

func (v *Value) mergeEntry(k *Key, val *Value, assign bool) []*Error {
	i, ok := v.index[k.Name]
	if !ok {
		v.appendEntry(k, val)
		return nil
	}
	cur := v.Entries[i].Value
	switch {
	case cur.Kind == Table && val.Kind == Table:
		return cur.mergeTable(val)
	case cur.Kind == Array && val.Kind == Array:
		if assign && cur.ArrayKind == LiteralArray && val.ArrayKind == LiteralArray {
			break
		}
		return cur.mergeArray(val)
	}
	return []*Error{{Kind: ErrDuplicateKey, Key: k.Name, Range: k.Range}}
}

func (v *Value) mergeArray(o *Value) []*Error {
	vk, ok := v.ArrayKind, o.ArrayKind
	switch {
	case (vk == ArrayOfTable || vk == ParentArrayOfTable) && ok == ParentArrayOfTable:
		if len(o.Values) == 0 {
			return nil
		}
		t := o.Values[len(o.Values)-1]
		v.Range = v.Range.Union(o.Range)
		if n := len(v.Values); n > 0 && v.Values[n-1].Kind == Table {
			return v.Values[n-1].mergeTable(t)
		}
		v.Values = append(v.Values, t)
		return nil
	case (vk == ArrayOfTable || vk == ParentArrayOfTable) && ok == ArrayOfTable,
		vk == LiteralArray && ok == LiteralArray:
		v.Range = v.Range.Union(o.Range)
		v.Values = append(v.Values, o.Values...)
		return nil
	}
	return []*Error{{Kind: ErrConflictArray, Range: v.SymbolRange, Range2: o.SymbolRange}}
}
