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
	stepGenerate     = "Generate report"
	stepListReports  = "List reports"
	stepReportDetail = "Report detail"
	stepDeleteReport = "Delete report"
)

const dateLayout = "2006-01-02"

// Report logs in, generates a report for the last ReportDays days, lists
// reports and reads the generated one back.
func Report(opts Options, deps Deps) (*smoke.Suite, error) {
	c := newClient(opts.BaseURL, opts, deps)
	rep := deps.Reporter

	var reportID string

	s := &smoke.Suite{Name: NameReport, Description: "Nutrition report API test", Mutates: true}
	s.AddStep(stepLogin, loginStep(c, opts, deps))

	s.AddStep(stepGenerate, func(ctx context.Context) error {
		end := opts.Now()
		start := end.AddDate(0, 0, -(opts.ReportDays - 1))
		env, err := c.Do(ctx, smoke.Call{
			Name:   stepGenerate,
			Method: http.MethodPost,
			Path:   constants.PathReportGenerate,
			Body: map[string]any{
				"reportPeriod": opts.ReportPeriod,
				"startDate":    start.Format(dateLayout),
				"endDate":      end.Format(dateLayout),
				"useAI":        false,
			},
			Authenticated: true,
			SuccessCode:   opts.SuccessCode,
		})
		if err != nil {
			return err
		}
		if err := env.Require("data"); err != nil {
			return smoke.NewStepError(smoke.KindMissingField, stepGenerate, err)
		}
		reportID = env.Data().String()
		rep.OK("report generated, id %s", reportID)
		return nil
	})

	s.AddStep(stepListReports, func(ctx context.Context) error {
		env, err := c.Do(ctx, smoke.Call{
			Name:   stepListReports,
			Method: http.MethodPost,
			Path:   constants.PathReportList,
			Body: map[string]any{
				"reportPeriod": opts.ReportPeriod,
				"pageNum":      1,
				"pageSize":     constants.DefaultReportPageSize,
			},
			Authenticated: true,
			SuccessCode:   opts.SuccessCode,
		})
		if err != nil {
			return err
		}
		items, ok := listItems(env.Data())
		if !ok {
			return smoke.Errorf(smoke.KindMalformed, stepListReports, "data is not a list: %s", env.Preview(constants.PreviewShort))
		}
		rep.OK("%d report(s) listed", len(items))
		if len(items) > 0 {
			rep.Field("latest id", value(items[0].Get("id")))
			rep.Field("latest date", value(firstPresent(items[0], "reportDate", "createTime", "endDate")))
		}
		return nil
	})

	s.AddStep(stepReportDetail, func(ctx context.Context) error {
		env, err := c.Do(ctx, smoke.Call{
			Name:          stepReportDetail,
			Method:        http.MethodGet,
			Path:          fmt.Sprintf(constants.PathReportByID, reportID),
			Authenticated: true,
			SuccessCode:   opts.SuccessCode,
			Schema:        envelope.SchemaReportDetail,
		})
		if err != nil {
			return err
		}
		if err := env.Require("data", "data.reportPeriod"); err != nil {
			return smoke.NewStepError(smoke.KindMissingField, stepReportDetail, err)
		}
		if got := env.Get("data.reportPeriod").String(); got != opts.ReportPeriod {
			return smoke.Errorf(smoke.KindMismatch, stepReportDetail, "report period %q, want %q", got, opts.ReportPeriod)
		}
		d := env.Data()
		rep.OK("report %s loaded", reportID)
		rep.Field("period", value(d.Get("reportPeriod")))
		rep.Field("overall score", value(d.Get("overallScore")))
		rep.Field("avg calories", value(d.Get("avgCalories")))
		rep.Field("total days", value(d.Get("totalDays")))
		rep.Field("start date", value(d.Get("startDate")))
		rep.Field("end date", value(d.Get("endDate")))
		return nil
	})

	if opts.Cleanup {
		s.AddCleanup(stepDeleteReport, func(ctx context.Context) error {
			if reportID == "" {
				rep.Info("nothing to delete")
				return nil
			}
			if _, err := c.Do(ctx, smoke.Call{
				Name:          stepDeleteReport,
				Method:        http.MethodDelete,
				Path:          fmt.Sprintf(constants.PathReportByID, reportID),
				Authenticated: true,
				SuccessCode:   opts.SuccessCode,
			}); err != nil {
				return err
			}
			rep.OK("report %s deleted", reportID)
			return nil
		})
	}

	return s, nil
}
