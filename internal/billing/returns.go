package billing

import "github.com/google/uuid"

// ReturnSelection holds the lines cloned back from an earlier bill.
type ReturnSelection struct {
	OriginalBillID string     `json:"originalBillId"`
	Items          []LineItem `json:"items"`
}

// LinkReturn clones the selected lines of original as returned lines: the
// quantity is forced negative and every clone gets a fresh id. Unknown and
// blank ids are ignored. Nothing stops a line from being returned twice.
func LinkReturn(original Bill, selectedLineItemIDs []string) ReturnSelection {
	selected := make(map[string]struct{}, len(selectedLineItemIDs))
	for _, id := range selectedLineItemIDs {
		if id == "" {
			continue
		}
		selected[id] = struct{}{}
	}
	out := ReturnSelection{OriginalBillID: original.ID}
	for _, item := range original.Items {
		if _, ok := selected[item.ID]; !ok {
			continue
		}
		clone := item
		clone.ID = uuid.NewString()
		if clone.Quantity > 0 {
			clone.Quantity = -clone.Quantity
		}
		clone.OriginBillID = original.ID
		out.Items = append(out.Items, clone)
	}
	return out
}

// originOf returns the origin bill of the first returned line, falling back
// to fallback when no line carries one.
func originOf(items []LineItem, fallback string) string {
	for _, item := range items {
		if item.IsReturn() {
			if item.OriginBillID != "" {
				return item.OriginBillID
			}
			break
		}
	}
	return fallback
}
