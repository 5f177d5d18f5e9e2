package googleads

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/types"
)

func fullRow() Row {
	return Row{
		FieldAdID:              "999111",
		FieldAdType:            "RESPONSIVE_SEARCH_AD",
		FieldAdStatus:          "ENABLED",
		FieldAdHeadlines:       []any{"Run Faster", "Shop The Sale"},
		FieldAdDescriptions:    []any{"Free shipping on all orders."},
		FieldImpressions:       int64(5000),
		FieldClicks:            int64(250),
		FieldCostMicros:        int64(30_000_000),
		FieldCTR:               0.05,
		FieldConversions:       12.5,
		FieldConversionRate:    0.05,
		FieldCostPerConversion: 2.4,
	}
}

func servedAll() map[string]bool {
	served := map[string]bool{}
	for _, f := range AdsQuery90d(90).Fields {
		served[f] = true
	}
	return served
}

func TestMapAdRowFullTier(t *testing.T) {
	account := &types.AdAccount{ID: uuid.New(), CustomerID: "123-456-7890"}

	ad, metrics, err := mapAdRow(account, fullRow(), servedAll(), 90)
	if err != nil {
		t.Fatalf("mapAdRow: %v", err)
	}
	if ad.ExternalID != "999111" || ad.AdAccountID != account.ID {
		t.Fatalf("ad identity wrong: %+v", ad)
	}
	if got := ad.HeadlineTexts(); len(got) != 2 || got[0] != "Run Faster" {
		t.Fatalf("headlines not mapped: %v", got)
	}
	if metrics.Impressions != 5000 || metrics.Clicks != 250 || metrics.Conversions != 12.5 {
		t.Fatalf("counts not mapped: %+v", metrics)
	}
	if metrics.CTR == nil || *metrics.CTR != 0.05 {
		t.Fatalf("served CTR should be set, got %v", metrics.CTR)
	}
	if metrics.CostPerConversion == nil || *metrics.CostPerConversion != 2.4 {
		t.Fatalf("served cost_per_conversion should be set, got %v", metrics.CostPerConversion)
	}
}

func TestMapAdRowDroppedFieldsStayNull(t *testing.T) {
	account := &types.AdAccount{ID: uuid.New(), CustomerID: "123-456-7890"}

	// The narrowed tier never served the derived rate fields; even though
	// the row omits them, the columns must be null, not zero.
	served := servedAll()
	delete(served, FieldCTR)
	delete(served, FieldConversionRate)
	delete(served, FieldCostPerConversion)

	row := fullRow()
	delete(row, FieldCTR)
	delete(row, FieldConversionRate)
	delete(row, FieldCostPerConversion)

	_, metrics, err := mapAdRow(account, row, served, 90)
	if err != nil {
		t.Fatalf("mapAdRow: %v", err)
	}
	if metrics.CTR != nil {
		t.Fatalf("dropped CTR must stay null, got %v", *metrics.CTR)
	}
	if metrics.ConversionRate != nil {
		t.Fatalf("dropped conversion rate must stay null, got %v", *metrics.ConversionRate)
	}
	if metrics.CostPerConversion != nil {
		t.Fatalf("dropped cost per conversion must stay null, got %v", *metrics.CostPerConversion)
	}
	if metrics.Impressions != 5000 || metrics.Clicks != 250 {
		t.Fatalf("raw counts should survive narrowing: %+v", metrics)
	}
}

func TestMapAdRowWithholdsSnapshotWhenCountsUnserved(t *testing.T) {
	account := &types.AdAccount{ID: uuid.New(), CustomerID: "123-456-7890"}

	// When the tier drops a core count, a zero-filled snapshot would read as
	// "this ad got no traffic". The ad must still map, with no snapshot.
	served := servedAll()
	delete(served, FieldImpressions)

	row := fullRow()
	delete(row, FieldImpressions)

	ad, metrics, err := mapAdRow(account, row, served, 90)
	if err != nil {
		t.Fatalf("mapAdRow: %v", err)
	}
	if ad == nil || ad.ExternalID != "999111" {
		t.Fatalf("ad should still map without metrics, got %+v", ad)
	}
	if metrics != nil {
		t.Fatalf("unserved impressions must withhold the snapshot, got %+v", metrics)
	}

	served = servedAll()
	delete(served, FieldConversions)
	row = fullRow()
	delete(row, FieldConversions)
	if _, metrics, err = mapAdRow(account, row, served, 90); err != nil || metrics != nil {
		t.Fatalf("unserved conversions must withhold the snapshot, got %+v (err %v)", metrics, err)
	}
}

func TestMapAdRowRequiresAdID(t *testing.T) {
	account := &types.AdAccount{ID: uuid.New(), CustomerID: "123-456-7890"}
	row := fullRow()
	delete(row, FieldAdID)

	if _, _, err := mapAdRow(account, row, servedAll(), 90); err == nil {
		t.Fatalf("expected error for row without an ad id")
	}
}

func TestMissingFields(t *testing.T) {
	requested := []string{FieldAdID, FieldCTR, FieldConversionRate}
	served := []string{FieldAdID}
	got := missingFields(requested, served)
	if len(got) != 2 || got[0] != FieldCTR || got[1] != FieldConversionRate {
		t.Fatalf("unexpected missing fields: %v", got)
	}
	if out := missingFields(requested, requested); out != nil {
		t.Fatalf("expected nil when everything was served, got %v", out)
	}
}

func TestRowAccessorsDistinguishAbsent(t *testing.T) {
	row := Row{FieldImpressions: int64(0)}
	if !row.Has(FieldImpressions) {
		t.Fatalf("zero value should still be present")
	}
	if row.Has(FieldClicks) {
		t.Fatalf("absent field reported present")
	}
	if _, ok := row.Float64(FieldCTR); ok {
		t.Fatalf("absent field must not read as a value")
	}
}
