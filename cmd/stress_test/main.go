package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/bikeshop/internal/adapter/storage"
	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/ident"
	"github.com/rl1809/bikeshop/internal/core/service"
)

const (
	redisAddr     = "localhost:6379"
	mysqlDSN      = "root:root@tcp(localhost:3306)/bikeshop"
	brand         = "STRESS"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()
	logger := zap.NewNop()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = mysqlDSN
	}
	db, err := storage.OpenMySQL(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	store := storage.NewMySQLAdapter(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	ids := ident.NewAllocator()
	catalog := service.NewCatalog(store.Framesets(), store.Handlebars(), store.WheelPairs(), store.Stock(), logger)
	orders := service.NewOrderService(store, ids, nil, logger)
	storefront := service.NewStorefront(catalog, service.NewAssemblyService(store.Products(), ids), orders,
		storage.NewRedisAdapter(rdb, time.Minute), logger)

	customer, err := service.NewCustomerService(store.Customers(), ids, logger).Register(ctx, domain.Customer{
		Forename: "Stress", Surname: "Test", HouseNumber: 1, Postcode: "S1",
	})
	if err != nil {
		log.Fatalf("failed to register customer: %v", err)
	}

	// Only the frameset is scarce; the other parts cover every request
	frameset := domain.Frameset{
		ComponentInfo: domain.ComponentInfo{SerialNumber: "stress-frame", Name: "Frame", BrandName: brand, Cost: decimal.NewFromInt(300), Stock: initialStock},
		Size:          decimal.NewFromInt(54),
	}
	handlebar := domain.Handlebar{
		ComponentInfo: domain.ComponentInfo{SerialNumber: "stress-bar", Name: "Bar", BrandName: brand, Cost: decimal.NewFromInt(40), Stock: totalRequests},
		Type:          domain.HandlebarStraight,
	}
	wheelPair := domain.WheelPair{
		ComponentInfo: domain.ComponentInfo{SerialNumber: "stress-wheels", Name: "Wheels", BrandName: brand, Cost: decimal.NewFromInt(150), Stock: totalRequests},
		Diameter:      decimal.NewFromInt(28),
		TyreType:      domain.TyreHybrid,
		BrakeType:     domain.BrakeRim,
	}
	for _, c := range []domain.Component{frameset, handlebar, wheelPair} {
		if err := upsert(ctx, catalog, c); err != nil {
			log.Fatalf("failed to seed %s: %v", c.Kind(), err)
		}
	}

	// Counters
	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var otherCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := storefront.Checkout(ctx, service.CheckoutRequest{
				RequestID:  uuid.New().String(),
				CustomerID: customer.ID,
				CustomName: fmt.Sprintf("stress-%d", i),
				Frameset:   frameset.Key(),
				Handlebar:  handlebar.Key(),
				WheelPair:  wheelPair.Key(),
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("checkout %d: %v", i, err)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	soldOut := soldOutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOut)
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && soldOut == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d sold out\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, soldOut)
	}

	remaining, err := catalog.Framesets.FindByID(ctx, frameset.Key())
	if err != nil {
		log.Fatalf("failed to read frameset: %v", err)
	}
	fmt.Printf("Final Frameset Stock: %d\n", remaining.Stock)
	if remaining.Stock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", remaining.Stock)
	}

	// Cancelling restores the stock for the next run
	placed, err := orders.FindByCustomer(ctx, customer.ID)
	if err != nil {
		log.Fatalf("failed to list orders: %v", err)
	}
	for _, o := range placed {
		if err := orders.CancelOrder(ctx, o.OrderNumber); err != nil {
			log.Printf("cancel %s: %v", o.OrderNumber, err)
		}
	}
	fmt.Printf("Cancelled %d orders\n", len(placed))
}

// upsert creates c or resets it to c's values when it already exists.
func upsert(ctx context.Context, catalog *service.Catalog, c domain.Component) error {
	err := catalog.Create(ctx, c)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return catalog.Update(ctx, c)
	}
	return err
}
