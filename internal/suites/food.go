package suites

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/envelope"
	"github.com/loykin/apismoke/internal/smoke"
)

// MockImageBase64 is a 1x1 PNG used when no image path is given.
const MockImageBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

const (
	stepLoadImage = "Load image"
	stepHealth    = "Health check"
	stepAnalyze   = "Analyze food"
)

// Food checks the AI service: health first, then one image analysis.
// The image is loaded before any network call so a bad path fails fast.
func Food(opts Options, deps Deps) (*smoke.Suite, error) {
	c := newClient(opts.FoodBaseURL, opts, deps)
	rep := deps.Reporter

	var (
		image     []byte
		imageName string
	)

	s := &smoke.Suite{Name: NameFood, Description: "Food image analysis API test"}

	s.AddStep(stepLoadImage, func(context.Context) error {
		if opts.ImagePath == "" {
			b, err := base64.StdEncoding.DecodeString(MockImageBase64)
			if err != nil {
				return smoke.NewStepError(smoke.KindInput, stepLoadImage, err)
			}
			image, imageName = b, "mock.png"
			rep.Info("no image given, using a built-in 1x1 PNG")
			rep.Info("usage: apismoke food <image-path>")
			return nil
		}
		b, err := loadImage(opts.ImagePath)
		if err != nil {
			return smoke.NewStepError(smoke.KindInput, stepLoadImage, err)
		}
		image, imageName = b, filepath.Base(opts.ImagePath)
		rep.OK("loaded %s (%d bytes)", opts.ImagePath, len(b))
		return nil
	})

	s.AddStep(stepHealth, func(ctx context.Context) error {
		_, err := c.Do(ctx, smoke.Call{
			Name:        stepHealth,
			Method:      http.MethodGet,
			Path:        constants.PathHealth,
			Timeout:     opts.Timeouts.Health,
			SuccessCode: opts.FoodSuccessCode,
			Schema:      envelope.SchemaEnvelope,
		})
		if err != nil {
			rep.Info("make sure the backend is running at %s", opts.FoodBaseURL)
			return err
		}
		rep.OK("AI service is up")
		return nil
	})

	s.AddStep(stepAnalyze, func(ctx context.Context) error {
		call := smoke.Call{
			Name:        stepAnalyze,
			Method:      http.MethodPost,
			Path:        constants.PathAnalyzeFood,
			Timeout:     opts.Timeouts.Analyze,
			SuccessCode: opts.FoodSuccessCode,
			Schema:      envelope.SchemaFoodAnalysis,
		}
		if opts.Upload {
			call.Path = constants.PathAnalyzeUpload
			call.Upload = &smoke.Upload{
				Field:    "file",
				FileName: imageName,
				Content:  image,
				Fields:   map[string]string{"userId": strconv.FormatInt(opts.UserID, 10)},
			}
		} else {
			call.Body = map[string]any{
				"base64Image": base64.StdEncoding.EncodeToString(image),
				"userId":      opts.UserID,
			}
		}
		rep.Info("analyzing %s, this can take up to %s", imageName, opts.Timeouts.Analyze)

		env, err := c.Do(ctx, call)
		if err != nil {
			return err
		}
		if err := env.Require("data"); err != nil {
			return smoke.NewStepError(smoke.KindMissingField, stepAnalyze, err)
		}
		if !env.Get("data.success").Bool() {
			msg := env.Get("data.errorMessage").String()
			if msg == "" {
				msg = "no error message"
			}
			return smoke.Errorf(smoke.KindBusiness, stepAnalyze, "analysis unsuccessful: %s", msg)
		}
		if err := env.Require("data.food"); err != nil {
			return smoke.NewStepError(smoke.KindMissingField, stepAnalyze, err)
		}
		food := env.Get("data.food")
		rep.OK("analysis succeeded")
		rep.Field("food", value(food.Get("name")))
		rep.Field("nutrition", value(food.Get("nutrition")))
		rep.Field("calories", value(food.Get("calories")))
		rep.Field("advice", value(food.Get("advice")))
		return nil
	})

	return s, nil
}

// loadImage reads a regular file. Directories and missing paths are rejected.
func loadImage(path string) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("image path is not a regular file: %s", path)
	}
	// #nosec G304 -- the path is an operator-supplied CLI argument
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("image file is empty: %s", path)
	}
	return b, nil
}
