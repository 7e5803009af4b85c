package engine

// DeriveGroupState computes progress and rollups from the group's items.
// It keeps no state; call it again after every mutation.
func DeriveGroupState(g Group) GroupState {
	return deriveItems(g.Items)
}

// Summarize rolls all items of a task up the same way as a single group.
func Summarize(groups []Group) GroupState {
	var items []Item
	for _, g := range groups {
		items = append(items, g.Items...)
	}
	return deriveItems(items)
}

func deriveItems(items []Item) GroupState {
	st := GroupState{Total: len(items)}
	anyNG, allOK := false, len(items) > 0
	for _, it := range items {
		if it.Result != ResultUnset {
			st.Progress++
		} else if it.Mandatory {
			st.MandatoryPending++
		}
		if it.Result == ResultNG {
			anyNG = true
		}
		if it.Result != ResultOK {
			allOK = false
		}
	}

	switch {
	case st.Progress == 0:
		st.Status = GroupStatusPending
	case st.Progress == st.Total:
		st.Status = GroupStatusCompleted
	default:
		st.Status = GroupStatusInProgress
	}

	switch {
	case anyNG:
		st.Result = GroupResultFail
	case allOK:
		st.Result = GroupResultPass
	default:
		st.Result = GroupResultNone
	}
	return st
}

// FilterItems returns the rows a sub-tab renders. Membership follows the group
// kind as well as the item kind, so an item can show under a tab that differs
// from its own kind.
func FilterItems(g Group, tab Kind) []Item {
	out := []Item{}
	for _, it := range g.Items {
		if g.Kind == tab || it.Kind == tab {
			out = append(out, it.clone())
		}
	}
	return out
}
