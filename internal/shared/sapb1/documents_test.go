package sapb1

import "testing"

func TestEscapeQueryEncodesSpaces(t *testing.T) {
	got := escapeQuery("/PurchaseOrders?$filter=DocNum eq 2001")
	want := "/PurchaseOrders?$filter=DocNum%20eq%202001"
	if got != want {
		t.Errorf("escapeQuery = %s, want %s", got, want)
	}
}

func TestEscapeFilterValueDoublesQuotes(t *testing.T) {
	// OData string literals double embedded single quotes
	got := escapeFilterValue("A'01")
	if got != "A''01" {
		t.Errorf("escapeFilterValue = %s, want A''01", got)
	}

	// A bin code from operator input must not terminate the literal
	got = escapeFilterValue("WH01-A-01' or BinCode ne '")
	if got != "WH01-A-01'' or BinCode ne ''" {
		t.Errorf("unexpected escape result: %s", got)
	}
}

func TestEscapeFilterValuePassthrough(t *testing.T) {
	if got := escapeFilterValue("WMS-GRN-abc123"); got != "WMS-GRN-abc123" {
		t.Errorf("plain value must pass through unchanged, got %s", got)
	}
}
