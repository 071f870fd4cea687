package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"menu-planner/internal/api"
	"menu-planner/internal/app"
	"menu-planner/internal/config"
	"menu-planner/internal/database"
	"menu-planner/internal/export"
	"menu-planner/internal/lock"
	"menu-planner/internal/logger"
	"menu-planner/internal/metrics"
	"menu-planner/internal/nutrition"
	"menu-planner/internal/planner"
	"menu-planner/internal/preferences"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	plans, err := app.OpenPlanStore(cfg.Persistence, db.SQL)
	if err != nil {
		log.Fatalf("Failed to initialize plan store: %v", err)
	}
	gate, err := lock.New(ctx, cfg.Lock)
	if err != nil {
		log.Fatalf("Failed to initialize regeneration gate: %v", err)
	}
	metricsStore := metrics.NewStore(db.SQL)

	application := app.NewApp(
		app.NewEngine(cfg.Regeneration, nil),
		plans,
		preferences.NewRepository(db.SQL),
		gate,
		metricsStore,
		zlog,
	)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "set-preferences":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		file := fs.String("file", "", "JSON file with the preference lists")
		defaults := fs.Bool("defaults", false, "Use the built-in dish catalog")
		fs.Parse(args)
		requireOwner(fs, *owner)

		var prefs planner.Preferences
		switch {
		case *defaults:
			prefs = preferences.Catalog()
		case *file != "":
			data, err := os.ReadFile(*file)
			if err != nil {
				log.Fatalf("Failed to read %s: %v", *file, err)
			}
			if err := json.Unmarshal(data, &prefs); err != nil {
				log.Fatalf("Failed to parse %s: %v", *file, err)
			}
		default:
			log.Fatal("Either -file or -defaults is required")
		}
		saved, err := application.SavePreferences(ctx, *owner, prefs)
		if err != nil {
			log.Fatalf("Failed to save preferences: %v", err)
		}
		fmt.Printf("Saved preferences: %d breakfasts, %d proteins/legumes, %d vegetables.\n",
			len(saved.Breakfast), len(saved.ProteinPool()), len(saved.Vegetable))

	case "generate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		fs.Parse(args)
		requireOwner(fs, *owner)

		if _, err := application.Generate(ctx, *owner); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		printWeek(ctx, application, *owner, application.Engine().Today())

	case "show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		today := fs.Int("today", -1, "Day to show first, 0=Monday (default: today)")
		fs.Parse(args)
		requireOwner(fs, *owner)

		day := *today
		if day < 0 {
			day = application.Engine().Today()
		}
		printWeek(ctx, application, *owner, day)

	case "regen-meal":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		dayArg := fs.String("day", "", "Day name or index (0=Monday)")
		mealArg := fs.String("meal", "", "breakfast, lunch or dinner")
		fs.Parse(args)
		requireOwner(fs, *owner)

		day, kind := parseDayMeal(*dayArg, *mealArg)
		meal, err := application.RegenerateMeal(ctx, *owner, day, kind)
		if err != nil {
			log.Fatalf("Regeneration failed: %v", err)
		}
		printDay(day, meal)

	case "regen-item":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		dayArg := fs.String("day", "", "Day name or index (0=Monday)")
		mealArg := fs.String("meal", "", "lunch or dinner")
		compArg := fs.String("component", "", "primary, vegetable or both")
		fs.Parse(args)
		requireOwner(fs, *owner)

		day, kind := parseDayMeal(*dayArg, *mealArg)
		comp, err := planner.ParseComponent(*compArg)
		if err != nil {
			log.Fatal(err)
		}
		course, err := application.RegenerateComponent(ctx, *owner, day, kind, comp)
		if err != nil {
			log.Fatalf("Regeneration failed: %v", err)
		}
		fmt.Printf("%s %s: %s\n", planner.DayName(day), kind, strings.Join(course[:], ", "))

	case "clear":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		fs.Parse(args)
		requireOwner(fs, *owner)

		if err := application.ClearWeek(ctx, *owner); err != nil {
			log.Fatalf("Clear failed: %v", err)
		}
		fmt.Println("Menu cleared.")

	case "clear-history":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		fs.Parse(args)
		requireOwner(fs, *owner)

		if err := application.ClearHistory(ctx, *owner); err != nil {
			log.Fatalf("Clear failed: %v", err)
		}
		fmt.Println("Regeneration history cleared.")

	case "export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		out := fs.String("out", "menu.html", "Output file")
		name := fs.String("name", "", "Name shown in the title")
		withNutrition := fs.Bool("nutrition", true, "Include the nutrition column")
		fs.Parse(args)
		requireOwner(fs, *owner)

		days, err := application.DisplayWeek(ctx, *owner, application.Engine().Today())
		if err != nil {
			log.Fatalf("Failed to load menu: %v", err)
		}
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		err = export.WriteHTML(f, days, export.Options{OwnerName: *name, WithNutrition: *withNutrition})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		fmt.Printf("Menu written to %s\n", *out)

	case "nutrition":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		dayArg := fs.String("day", "", "Day name or index (0=Monday)")
		fs.Parse(args)
		requireOwner(fs, *owner)

		day, err := planner.ParseDay(*dayArg)
		if err != nil {
			log.Fatal(err)
		}
		meal, err := application.Day(ctx, *owner, day)
		if err != nil {
			log.Fatalf("Failed to load menu: %v", err)
		}
		total, unknown := nutrition.SumWithUnknown(meal.Items())
		printDay(day, meal)
		fmt.Println(nutrition.FormatSummary(total, unknown))

	case "token":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", "", "Owner id")
		ttl := fs.Duration("ttl", 30*24*time.Hour, "Token lifetime")
		fs.Parse(args)
		requireOwner(fs, *owner)

		if cfg.Auth.JWTSecret == "" {
			log.Fatal("JWT_SECRET is not set")
		}
		token, err := api.IssueToken([]byte(cfg.Auth.JWTSecret), *owner, *ttl)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)

	case "metrics-cleanup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args)

		affected, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func requireOwner(fs *flag.FlagSet, owner string) {
	if owner == "" {
		fmt.Fprintf(os.Stderr, "%s: -owner is required\n", fs.Name())
		fs.Usage()
		os.Exit(2)
	}
}

func parseDayMeal(dayArg, mealArg string) (int, planner.MealKind) {
	day, err := planner.ParseDay(dayArg)
	if err != nil {
		log.Fatal(err)
	}
	kind, err := planner.ParseMealKind(mealArg)
	if err != nil {
		log.Fatal(err)
	}
	return day, kind
}

func printWeek(ctx context.Context, application *app.App, owner string, today int) {
	days, err := application.DisplayWeek(ctx, owner, today)
	if errors.Is(err, app.ErrNoMenu) {
		fmt.Println("No menu yet. Run `meal-planner generate` first.")
		return
	}
	if err != nil {
		log.Fatalf("Failed to load menu: %v", err)
	}
	for i, d := range days {
		if i == 0 {
			fmt.Print("(today) ")
		}
		printDay(d.Index, d.Meal)
	}
}

func printDay(day int, meal planner.Meal) {
	fmt.Printf("%s\n", planner.DayName(day))
	fmt.Printf("  Breakfast: %s\n", meal.Breakfast)
	fmt.Printf("  Lunch:     %s\n", strings.Join(meal.Lunch[:], ", "))
	fmt.Printf("  Dinner:    %s\n", strings.Join(meal.Dinner[:], ", "))
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  set-preferences    Save dish lists (-owner, -file or -defaults)")
	fmt.Println("  generate           Generate a new weekly menu (-owner)")
	fmt.Println("  show               Print the menu starting from today (-owner, -today)")
	fmt.Println("  regen-meal         Regenerate one meal (-owner, -day, -meal)")
	fmt.Println("  regen-item         Regenerate a course component (-owner, -day, -meal, -component)")
	fmt.Println("  clear              Delete the stored menu (-owner)")
	fmt.Println("  clear-history      Forget recently regenerated dishes (-owner)")
	fmt.Println("  export             Write the menu as an HTML page (-owner, -out)")
	fmt.Println("  nutrition          Estimate one day's nutrition (-owner, -day)")
	fmt.Println("  token              Issue an API token (-owner, -ttl)")
	fmt.Println("  metrics-cleanup    Remove old metric records (-days)")
}
