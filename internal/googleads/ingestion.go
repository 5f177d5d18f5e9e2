package googleads

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type SyncDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Executor *Executor
	Ads      repos.AdRepo
	Metrics  repos.AdMetricsRepo
	Accounts repos.AdAccountRepo
}

type SyncInput struct {
	Account    *types.AdAccount
	WindowDays int
}

type SyncOutput struct {
	RowsFetched int `json:"rows_fetched"`
	AdsUpserted int `json:"ads_upserted"`
	// Snapshots withheld because a core count field was not served; the ads
	// still upsert, they just carry no metrics for the window.
	MetricsSkipped int `json:"metrics_skipped,omitempty"`
	// Fields the access tier could not serve this sync; their columns stay
	// null rather than zero.
	DroppedFields []string `json:"dropped_fields,omitempty"`
}

// SyncAccountAds pulls the trailing-window ad report through the resilient
// executor and upserts creatives plus their metric snapshot. Scheduling of
// syncs is owned by the caller.
func SyncAccountAds(ctx context.Context, deps SyncDeps, in SyncInput) (SyncOutput, error) {
	out := SyncOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Executor == nil || deps.Ads == nil || deps.Metrics == nil || deps.Accounts == nil {
		return out, fmt.Errorf("sync_account_ads: missing deps")
	}
	if in.Account == nil || in.Account.ID == uuid.Nil {
		return out, fmt.Errorf("sync_account_ads: missing account")
	}

	query := AdsQuery90d(in.WindowDays)
	result, err := deps.Executor.Search(ctx, in.Account.CustomerID, query)
	if err != nil {
		return out, err
	}
	out.RowsFetched = len(result.Rows)
	out.DroppedFields = missingFields(query.Fields, result.Fields)

	served := map[string]bool{}
	for _, f := range result.Fields {
		served[f] = true
	}

	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range result.Rows {
			ad, metrics, mapErr := mapAdRow(in.Account, row, served, in.WindowDays)
			if mapErr != nil {
				deps.Log.Warn("skipping unmappable report row", "error", mapErr)
				continue
			}

			groupID, groupErr := ensureHierarchy(ctx, tx, in.Account, row)
			if groupErr != nil {
				return groupErr
			}
			ad.AdGroupID = groupID

			if upErr := deps.Ads.UpsertByExternalID(ctx, tx, []*types.Ad{ad}); upErr != nil {
				return upErr
			}
			if metrics != nil {
				persisted, getErr := findAdByExternal(ctx, tx, in.Account.ID, ad.ExternalID)
				if getErr != nil {
					return getErr
				}
				metrics.AdID = persisted.ID
				if upErr := deps.Metrics.Upsert(ctx, tx, []*types.AdMetrics90d{metrics}); upErr != nil {
					return upErr
				}
			} else {
				out.MetricsSkipped++
			}
			out.AdsUpserted++
		}
		return deps.Accounts.TouchLastSync(ctx, tx, in.Account.ID)
	})
	if err != nil {
		return out, err
	}

	deps.Log.Info("account ad sync complete",
		"customer_id", in.Account.CustomerID,
		"rows", out.RowsFetched,
		"ads_upserted", out.AdsUpserted,
		"metrics_skipped", out.MetricsSkipped,
		"dropped_fields", len(out.DroppedFields),
	)
	return out, nil
}

func mapAdRow(account *types.AdAccount, row Row, served map[string]bool, windowDays int) (*types.Ad, *types.AdMetrics90d, error) {
	externalID := row.Str(FieldAdID)
	if externalID == "" {
		return nil, nil, fmt.Errorf("row missing %s", FieldAdID)
	}

	ad := &types.Ad{
		AdAccountID:  account.ID,
		ExternalID:   externalID,
		Type:         row.Str(FieldAdType),
		Status:       row.Str(FieldAdStatus),
		Headlines:    types.AssetJSON(row.Strings(FieldAdHeadlines)),
		Descriptions: types.AssetJSON(row.Strings(FieldAdDescriptions)),
	}
	if ad.Status == "" {
		ad.Status = "ENABLED"
	}
	if urls := row.Strings(FieldAdFinalURLs); len(urls) > 0 {
		ad.FinalURLs = types.AssetJSON(urls)
	}

	if windowDays <= 0 {
		windowDays = 90
	}
	// A dropped field is never backfilled as zero. The count columns are
	// non-null, so when the access tier dropped a core count the whole
	// snapshot is withheld and the ad stays without metrics for the window.
	if !served[FieldImpressions] || !served[FieldClicks] || !served[FieldCostMicros] || !served[FieldConversions] {
		return ad, nil, nil
	}
	metrics := &types.AdMetrics90d{
		WindowDays:  windowDays,
		Impressions: row.Int64(FieldImpressions),
		Clicks:      row.Int64(FieldClicks),
		CostMicros:  row.Int64(FieldCostMicros),
	}
	if v, ok := row.Float64(FieldConversions); ok {
		metrics.Conversions = v
	}

	// Derived rates only when the access tier served the field.
	if served[FieldCTR] {
		if v, ok := row.Float64(FieldCTR); ok {
			metrics.CTR = &v
		}
	}
	if served[FieldConversionRate] {
		if v, ok := row.Float64(FieldConversionRate); ok {
			metrics.ConversionRate = &v
		}
	}
	if served[FieldCostPerConversion] {
		if v, ok := row.Float64(FieldCostPerConversion); ok {
			metrics.CostPerConversion = &v
		}
	}

	return ad, metrics, nil
}

func ensureHierarchy(ctx context.Context, tx *gorm.DB, account *types.AdAccount, row Row) (uuid.UUID, error) {
	campaign := types.Campaign{
		AdAccountID: account.ID,
		ExternalID:  row.Str(FieldCampaignID),
		Name:        row.Str(FieldCampaignName),
		Status:      row.Str(FieldCampaignStatus),
		ChannelType: row.Str(FieldChannelType),
	}
	if campaign.ExternalID == "" {
		campaign.ExternalID = "unknown"
	}
	if err := tx.WithContext(ctx).
		Where("ad_account_id = ? AND external_id = ?", account.ID, campaign.ExternalID).
		FirstOrCreate(&campaign).Error; err != nil {
		return uuid.Nil, err
	}

	group := types.AdGroup{
		CampaignID: campaign.ID,
		ExternalID: row.Str(FieldAdGroupID),
		Name:       row.Str(FieldAdGroupName),
		Status:     row.Str(FieldAdGroupStatus),
	}
	if group.ExternalID == "" {
		group.ExternalID = "unknown"
	}
	if err := tx.WithContext(ctx).
		Where("campaign_id = ? AND external_id = ?", campaign.ID, group.ExternalID).
		FirstOrCreate(&group).Error; err != nil {
		return uuid.Nil, err
	}
	return group.ID, nil
}

func findAdByExternal(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, externalID string) (*types.Ad, error) {
	var ad types.Ad
	if err := tx.WithContext(ctx).
		Where("ad_account_id = ? AND external_id = ?", accountID, externalID).
		First(&ad).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

func missingFields(requested, served []string) []string {
	got := map[string]bool{}
	for _, f := range served {
		got[f] = true
	}
	var out []string
	for _, f := range requested {
		if !got[f] {
			out = append(out, f)
		}
	}
	return out
}
