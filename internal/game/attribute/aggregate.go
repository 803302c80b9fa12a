package attribute

// Slot names the equipment slot a contribution came from. The attribute package
// does not interpret slot names.
type Slot string

// Slotted pairs an equipment slot with the attribute contribution of the item
// occupying it.
type Slotted struct {
	Slot  Slot
	Table Table
}

// Aggregate sums every equipped contribution onto base and clamps the result
// to each kind's floor.
//
// Aggregate is pure: it neither mutates its inputs nor depends on the order of
// equipped.
//
// Postcondition: for every kind k, result[k] == max(k.Floor(), base[k] + Σ equipped[i].Table[k]).
func Aggregate(base Table, equipped []Slotted) Table {
	total := base
	for _, s := range equipped {
		total = total.Plus(s.Table)
	}
	return total.Clamp()
}
