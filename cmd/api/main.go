package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"cnpjbase/cmd/internal/dataset"
	"cnpjbase/cmd/internal/http/handler"
	"cnpjbase/cmd/internal/infrastructure/aws/storage"
	"cnpjbase/cmd/internal/infrastructure/drive"
	"cnpjbase/cmd/internal/service"
	"cnpjbase/cmd/internal/service/jobs"
	"cnpjbase/cmd/internal/utils/validators"
)

const envVarsPrefix = "/cnpjbase/prod/"

func main() {
	validate := validator.New()
	registerValidators(validate)

	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else {
		// Loads from .env
		err := godotenv.Load()
		if err != nil {
			panic(err)
		}
	}

	// Pick the storage session backend
	session, err := newStorageSession()
	if err != nil {
		panic(err)
	}

	locator := dataset.NewLocator(session)
	fetcher := dataset.NewFetcher(session, locator, cacheWindow())

	companyService := service.NewCompanyService(fetcher, validate)
	companyRoutes := handler.NewCompanyDefault(companyService)

	// Optional cache warmer
	if interval := refreshInterval(); interval > 0 {
		refresher := jobs.NewDatasetRefresher(fetcher, interval)
		go refresher.Start(context.Background())
	}

	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	// Companies
	e.GET("/api/companies/search", companyRoutes.SearchCompanies)
	e.GET("/api/companies/:cnpj", companyRoutes.GetCompany)
	e.POST("/api/companies/batch", companyRoutes.BatchLookup)

	// Dataset
	e.GET("/api/stats", companyRoutes.GetStatistics)
	e.GET("/api/source/status", companyRoutes.GetSourceStatus)
	e.POST("/api/source/refresh", companyRoutes.RefreshSource)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	if err := e.Start(":7070"); err != nil {
		panic(err)
	}
}

// newStorageSession wires the configured provider. The rest of the program
// only ever sees the dataset.StorageSession interface.
func newStorageSession() (dataset.StorageSession, error) {
	if os.Getenv("STORAGE_BACKEND") == "s3" {
		return storage.NewS3Session()
	}
	return drive.NewClient(
		os.Getenv("DRIVE_ACCESS_TOKEN"),
		os.Getenv("DRIVE_ROOT_FOLDER_ID"),
	), nil
}

func cacheWindow() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("CACHE_WINDOW_MINUTES"))
	if err != nil || minutes <= 0 {
		return dataset.DefaultCacheWindow
	}
	return time.Duration(minutes) * time.Minute
}

func refreshInterval() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("DATASET_REFRESH_MINUTES"))
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("cnpj", validators.CNPJ)
}

func loadProdEnv() {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})
	if err != nil {
		log.Fatalf("unable to load prod environment, %v", err)
	}

	prefixLength := len(envVarsPrefix)
	// Export vars
	for _, param := range out.Parameters {
		key := (*param.Name)[prefixLength:]
		value := *param.Value
		enverr := os.Setenv(key, value)
		if enverr != nil {
			log.Fatalf("unable to set environment variable, %v", enverr)
		}
	}
	log.Debugf("loaded %d prod environment variables", len(out.Parameters))
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
