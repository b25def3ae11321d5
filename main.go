package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/catalog"
	"coffeeshop/internal/config"
	"coffeeshop/internal/database"
	"coffeeshop/internal/handlers"
	"coffeeshop/internal/inventory"
	"coffeeshop/internal/metrics"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/notify"
	"coffeeshop/internal/orders"
	"coffeeshop/internal/payment"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())
	log.Println("operating mode:", config.AppEnv.Mode)

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("⚠️ product index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if config.AppEnv.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(config.AppEnv.AMQPURL)
		if err != nil {
			log.Printf("⚠️ AMQP unavailable, stock events go to the log only: %v", err)
		} else {
			defer amqpNotifier.Close()
			notifier = amqpNotifier
		}
	}

	resolver := catalog.NewResolver(
		&catalog.MongoStore{DB: db},
		catalog.NewCache(config.AppEnv.ProductCacheTTL),
		catalog.DefaultSnapshot(),
		config.AppEnv.Mode,
		config.AppEnv.ProductLookupTimeout,
	)
	ledger := inventory.NewLedger(db, notifier)
	store := orders.NewStore(db, config.AppEnv.Mode, metrics.NewStoreMetrics())
	assembler := orders.NewAssembler(resolver, ledger, store)

	adapter := payment.NewAdapter(store, payment.Credentials{
		MerchantID:    config.AppEnv.MerchantID,
		HashKey:       config.AppEnv.HashKey,
		HashIV:        config.AppEnv.HashIV,
		GatewayURL:    config.AppEnv.GatewayURL,
		ReturnURL:     config.AppEnv.ReturnURL,
		ClientBackURL: config.AppEnv.ClientBackURL,
	}, metrics.NewPaymentMetrics())

	r := gin.Default()

	r.POST("/orders", handlers.Checkout(assembler))
	r.POST("/orders/dine-in", handlers.DineInCheckout(assembler))
	r.GET("/orders/recent", handlers.RecentOrders(store))

	r.GET("/payment/checkout/:orderNumber", handlers.PaymentCheckout(adapter, store))
	r.POST("/payment/notify", handlers.PaymentNotify(adapter))
	r.POST("/payment/result", handlers.PaymentResult(adapter, config.AppEnv.ClientBackURL))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(store))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(store))
		admin.PATCH("/products/:id/stock", handlers.RestockProduct(ledger))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
