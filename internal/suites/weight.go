package suites

import (
	"context"
	"fmt"
	"net/http"

	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/envelope"
	"github.com/loykin/apismoke/internal/smoke"
)

const (
	stepLatest       = "Latest weight"
	stepAddWeight    = "Add weight record"
	stepVerifyLatest = "Verify latest weight"
	stepListWeights  = "List weight records"
	stepStatistics   = "Weight statistics"
	stepDeleteWeight = "Delete weight record"
)

const (
	isoLayout        = "2006-01-02T15:04:05"
	listPreviewCount = 3
)

// Weight logs in, writes a weight record and checks that the latest record
// reflects it.
func Weight(opts Options, deps Deps) (*smoke.Suite, error) {
	c := newClient(opts.BaseURL, opts, deps)
	rep := deps.Reporter

	var recordID string

	latest := func(ctx context.Context, step string) (*envelope.Envelope, error) {
		return c.Do(ctx, smoke.Call{
			Name:          step,
			Method:        http.MethodGet,
			Path:          constants.PathWeightLatest,
			Authenticated: true,
			SuccessCode:   opts.SuccessCode,
			Schema:        envelope.SchemaWeightRecord,
		})
	}

	s := &smoke.Suite{Name: NameWeight, Description: "Weight record API test", Mutates: true}
	s.AddStep(stepLogin, loginStep(c, opts, deps))

	s.AddStep(stepLatest, func(ctx context.Context) error {
		env, err := latest(ctx, stepLatest)
		if err != nil {
			return err
		}
		if !env.HasData() {
			return smoke.Warnf("no weight records yet")
		}
		rep.OK("latest weight %v kg", value(env.Get("data.weight")))
		rep.Field("recorded", value(firstPresent(env.Data(), "recordTime", "recordDate")))
		return nil
	})

	s.AddStep(stepAddWeight, func(ctx context.Context) error {
		now := opts.Now()
		env, err := c.Do(ctx, smoke.Call{
			Name:   stepAddWeight,
			Method: http.MethodPost,
			Path:   constants.PathWeightAdd,
			Body: map[string]any{
				"weight":      opts.Weight,
				"bodyFat":     opts.BodyFat,
				"bodyFatRate": opts.BodyFat,
				"recordTime":  now.Format(isoLayout),
				"recordDate":  now.Format(dateLayout),
			},
			Authenticated: true,
			SuccessCode:   opts.SuccessCode,
		})
		if err != nil {
			return err
		}
		if env.HasData() {
			recordID = env.Data().String()
			rep.OK("record added, id %s", recordID)
		} else {
			rep.OK("record added")
		}
		return nil
	})

	s.AddStep(stepVerifyLatest, func(ctx context.Context) error {
		env, err := latest(ctx, stepVerifyLatest)
		if err != nil {
			return err
		}
		if err := env.Require("data", "data.weight"); err != nil {
			return smoke.NewStepError(smoke.KindMissingField, stepVerifyLatest, err)
		}
		got := env.Get("data.weight")
		if !envelope.NumberEquals(got, opts.Weight) {
			return smoke.Errorf(smoke.KindMismatch, stepVerifyLatest, "latest weight is %s, want %v", got.Raw, opts.Weight)
		}
		rep.OK("latest weight is %v kg", opts.Weight)
		return nil
	})

	s.AddStep(stepListWeights, func(ctx context.Context) error {
		env, err := c.Do(ctx, smoke.Call{
			Name:          stepListWeights,
			Method:        http.MethodPost,
			Path:          constants.PathWeightList,
			Body:          map[string]any{"pageNum": 1, "pageSize": constants.DefaultWeightPageSize},
			Authenticated: true,
			SuccessCode:   opts.SuccessCode,
		})
		if err != nil {
			return err
		}
		items, ok := listItems(env.Data())
		if !ok {
			return smoke.Errorf(smoke.KindMalformed, stepListWeights, "data is not a list: %s", env.Preview(constants.PreviewShort))
		}
		rep.OK("%d record(s) listed", len(items))
		for i, it := range items {
			if i == listPreviewCount {
				break
			}
			rep.Info("%d. %v kg - %v", i+1, value(it.Get("weight")), value(firstPresent(it, "recordTime", "recordDate")))
		}
		return nil
	})

	s.AddStep(stepStatistics, func(ctx context.Context) error {
		env, err := c.Do(ctx, smoke.Call{
			Name:          stepStatistics,
			Method:        http.MethodGet,
			Path:          constants.PathWeightStats,
			Authenticated: true,
			SuccessCode:   opts.SuccessCode,
		})
		if err != nil {
			return err
		}
		rep.OK("statistics loaded")
		d := env.Data()
		rep.Field("totalRecords", value(d.Get("totalRecords")))
		rep.Field("currentWeight", value(d.Get("currentWeight")))
		rep.Field("totalChange", value(d.Get("totalChange")))
		return nil
	})

	if opts.Cleanup {
		s.AddCleanup(stepDeleteWeight, func(ctx context.Context) error {
			if recordID == "" {
				rep.Info("nothing to delete")
				return nil
			}
			if _, err := c.Do(ctx, smoke.Call{
				Name:          stepDeleteWeight,
				Method:        http.MethodDelete,
				Path:          fmt.Sprintf(constants.PathWeightDeleteByID, recordID),
				Authenticated: true,
				SuccessCode:   opts.SuccessCode,
			}); err != nil {
				return err
			}
			rep.OK("record %s deleted", recordID)
			return nil
		})
	}

	return s, nil
}
