package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"deletion-agent/internal/di"
	"deletion-agent/internal/domain/entity"
	"deletion-agent/internal/infrastructure/env"
)

func main() {
	var (
		firstName = flag.String("first-name", "", "first name (required)")
		lastName  = flag.String("last-name", "", "last name (required)")
		email     = flag.String("email", "", "email address (required)")
		dob       = flag.String("dob", "", "date of birth, MM/DD/YYYY")
		address   = flag.String("address", "", "street address")
		city      = flag.String("city", "", "city")
		state     = flag.String("state", "", "US state, code or full name")
		zipCode   = flag.String("zip", "", "zip code")
		broker    = flag.String("broker", "", "process only the named broker")
		headless  = flag.Bool("headless", false, "run the browser headless")
	)
	flag.Parse()

	if *firstName == "" || *lastName == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "first-name, last-name and email are required")
		flag.Usage()
		os.Exit(2)
	}

	profile := entity.UserProfile{
		FirstName: *firstName,
		LastName:  *lastName,
		Email:     *email,
		Address:   *address,
		City:      *city,
		State:     *state,
		ZipCode:   *zipCode,
	}
	if *dob != "" {
		normalized, err := entity.ValidateDateOfBirth(*dob)
		if err != nil {
			log.Fatalf("Invalid date of birth: %v", err)
		}
		profile.DateOfBirth = normalized
	}

	envService := env.NewEnvService()
	ctx := context.Background()

	container, err := di.NewContainer(ctx, di.Config{
		OpenRouterAPIKey: envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.MustGet("OPENROUTER_MODEL_NAME"),
		AntiCaptchaKey:   envService.Get("ANTICAPTCHA_API_KEY"),
		ConfigDir:        orDefault(envService.Get("BROKER_CONFIG_DIR"), "broker_configs"),
		ScreenshotDir:    orDefault(envService.Get("SCREENSHOT_DIR"), "screenshots"),
		GmailCredentials: orDefault(envService.Get("GMAIL_CREDENTIALS_PATH"), "credentials.json"),
		GmailToken:       orDefault(envService.Get("GMAIL_TOKEN_PATH"), "token.json"),
		BrowserHeadless:  *headless,
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	summary, err := container.Processor.ProcessAll(ctx, profile, *broker)
	if err != nil {
		container.Logger.Error("Run aborted", "error", err)
		fmt.Fprintf(os.Stderr, "Run aborted: %v\n", err)
		os.Exit(1)
	}

	printSummary(summary)
	if summary.Succeeded() == 0 {
		os.Exit(1)
	}
}

func printSummary(summary *entity.BatchSummary) {
	fmt.Printf("\nProcessed %d broker(s): %d succeeded, %d failed (%.0f%%)\n",
		summary.Processed(), summary.Succeeded(), summary.FailedCount(),
		summary.SuccessRate()*100)

	for _, r := range summary.Results {
		status := "OK"
		if !r.Success {
			status = "FAILED"
		}
		confirmed := ""
		if r.Confirmed {
			confirmed = " [confirmed]"
		}
		fmt.Printf("  %-8s %s%s: %s\n", status, r.BrokerName, confirmed, r.Message)
	}

	if len(summary.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range summary.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}

func orDefault(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}
