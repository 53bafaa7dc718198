package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/clients"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/metrics"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/search"
	"catalog-service/internal/services"
	"catalog-service/internal/subscribers"
	"catalog-service/internal/workers"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Catalog API
// @version 1.0.0
// @description Storefront catalog: products, categories, stock by city, discounts, reviews, content, search and order tooling

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	appMetrics := metrics.New()
	log.Println("✓ Prometheus metrics initialized")

	redisClient := connectRedis(cfg.RedisURL)
	cache := repository.NewCache(redisClient, appMetrics)

	// Repositories
	productsRepo := repository.NewProductsRepository(db, cache)
	categoriesRepo := repository.NewCategoryRepository(db, cache)
	brandsRepo := repository.NewBrandRepository(db, cache)
	stocksRepo := repository.NewStockRepository(db, cache)
	discountsRepo := repository.NewDiscountRepository(db, cache)
	specsRepo := repository.NewSpecificationRepository(db, cache)
	reviewsRepo := repository.NewReviewRepository(db, cache)
	contentRepo := repository.NewContentRepository(db, cache)
	translationsRepo := repository.NewTranslationRepository(db, cache)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Messaging is optional; without it no events or translation requests are sent
	var (
		natsConn   *nats.Conn
		js         jetstream.JetStream
		publisher  services.TranslationPublisher
		catalogEvt services.CatalogEvents
	)
	if cfg.NATSURL != "" {
		natsConn, js, err = connectJetStream(rootCtx, cfg.NATSURL)
		if err != nil {
			log.Printf("WARNING: Failed to initialize NATS: %v (continuing without events)", err)
		} else {
			p := events.NewPublisher(js, logger)
			publisher, catalogEvt = p, p
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if natsConn != nil {
			natsConn.Drain()
		}
	}()

	translator := services.NewTranslator(publisher, middleware.TranslationTargets(cfg.DefaultLanguage, cfg.SupportedLanguages), logger)

	// Search engine is optional; without it search runs on the database
	var (
		elastic *search.Elastic
		indexer services.SearchIndexer
	)
	if cfg.ElasticsearchURL != "" {
		elastic, err = connectElastic(rootCtx, cfg, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Elasticsearch: %v (using database search)", err)
			elastic = nil
		} else {
			indexer = elastic
			log.Println("✓ Elasticsearch connected")
		}
	} else {
		log.Println("ELASTICSEARCH_URL not set, using database search")
	}

	// Services
	productService := services.NewProductService(services.ProductDeps{
		Products:       productsRepo,
		Categories:     categoriesRepo,
		Brands:         brandsRepo,
		StockRepo:      stocksRepo,
		Discounts:      discountsRepo,
		Specifications: specsRepo,
		Reviews:        reviewsRepo,
		Content:        contentRepo,
		Translator:     translator,
		Indexer:        indexer,
		Events:         catalogEvt,
		Logger:         logger,
	})
	categoryService := services.NewCategoryService(categoriesRepo, cache, cfg.FacetsCacheTTL, translator, indexer, logger)
	cityService := services.NewCityService(stocksRepo, productsRepo)
	basketClient := clients.NewBasketClient(cfg.BasketServiceURL, cfg.BasketServiceTimeout, logger)
	orderService := services.NewOrderService(basketClient, productService, stocksRepo, logger)
	searchService := search.NewService(elastic, search.NewDatabase(db), productService, productsRepo, categoriesRepo, specsRepo, appMetrics, logger)

	// Subscribers
	if js != nil {
		translationSub := subscribers.NewTranslationSubscriber(js, translationsRepo, appMetrics, logger)
		if err := translationSub.Start(rootCtx); err != nil {
			log.Printf("WARNING: Failed to start translation subscriber: %v", err)
		} else {
			log.Println("✓ Translation subscriber started")
		}
		specSub := subscribers.NewSpecificationSubscriber(js, specsRepo, translator, appMetrics, logger)
		if err := specSub.Start(rootCtx); err != nil {
			log.Printf("WARNING: Failed to start specification subscriber: %v", err)
		} else {
			log.Println("✓ Specification subscriber started")
		}
	}

	// Background workers
	registered := map[string]handlers.BackgroundWorker{}
	sweeper := workers.NewDiscountSweeper(discountsRepo, appMetrics, cfg.DiscountSweepInterval, logger)
	sweeper.Start()
	registered["discount_sweeper"] = sweeper
	log.Println("✓ Discount sweeper started")

	var etlWorker *workers.ETLSyncWorker
	if cfg.ETLServiceURL != "" {
		etlClient := clients.NewETLClient(cfg.ETLServiceURL, cfg.ETLRateLimit)
		etlWorker = workers.NewETLSyncWorker(etlClient, productsRepo, brandsRepo, stocksRepo, translator, appMetrics, cfg.ETLSyncInterval, logger)
		etlWorker.Start()
		registered["etl_sync"] = etlWorker
		log.Println("✓ ETL sync worker started")
	} else {
		log.Println("ETL_SERVICE_URL not set, skipping ETL sync worker")
	}

	// Handlers
	paging := handlers.Paging{DefaultLimit: cfg.DefaultPageSize, MaxLimit: cfg.MaxPageSize}
	productsHandler := handlers.NewProductsHandler(productService, paging, logger)
	categoriesHandler := handlers.NewCategoriesHandler(categoryService, contentRepo, logger)
	brandsHandler := handlers.NewBrandsHandler(brandsRepo, categoriesRepo, translator, logger)
	specsHandler := handlers.NewSpecificationsHandler(specsRepo, categoriesRepo, productsRepo, translator, indexer, logger)
	salesPointsHandler := handlers.NewSalesPointsHandler(cityService, stocksRepo, productsRepo, translator, logger)
	discountsHandler := handlers.NewDiscountsHandler(discountsRepo, logger)
	reviewsHandler := handlers.NewReviewsHandler(reviewsRepo, paging, logger)
	contentHandler := handlers.NewContentHandler(contentRepo, productService, translator, paging, logger)
	searchHandler := handlers.NewSearchHandler(searchService, stocksRepo, logger)
	ordersHandler := handlers.NewOrdersHandler(orderService, logger)
	importHandler := handlers.NewImportHandler(stocksRepo, productsRepo, logger)
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	workersHandler := handlers.NewWorkersHandler(registered, logger)

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal("Failed to register validators:", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics(appMetrics))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.Language(cfg.DefaultLanguage, cfg.SupportedLanguages))

	// Public storefront routes
	{
		products := api.Group("/products")
		products.GET("", productsHandler.GetProducts)
		products.GET("/all/slugs", productsHandler.GetSlugs)
		products.GET("/by-ids/:ids", productsHandler.GetProductsByIDs)
		products.GET("/filter_by_cat/:slug", productsHandler.GetProductsByCategory)
		products.GET("/:slug", productsHandler.GetProduct)
		products.GET("/:slug/stocks", productsHandler.GetProductStocks)

		api.GET("/stocks/filter_by_prod/:product/:city", productsHandler.GetStocksInCity)
		api.GET("/cities", salesPointsHandler.GetCities)

		categories := api.Group("/categories")
		categories.GET("", categoriesHandler.GetTree)
		categories.GET("/:id", categoriesHandler.GetCategory)
		categories.GET("/:id/children", categoriesHandler.GetChildren)
		categories.GET("/:id/facets", categoriesHandler.GetFacets)
		categories.GET("/:id/price-range", categoriesHandler.GetPriceRange)
		categories.GET("/:id/banners", categoriesHandler.GetBanners)

		brands := api.Group("/brands")
		brands.GET("", brandsHandler.GetBrands)
		brands.GET("/by_category/:id", brandsHandler.GetBrandsByCategory)
		brands.GET("/:id", brandsHandler.GetBrand)

		api.GET("/specifications", specsHandler.GetDistinct)
		api.GET("/specifications/filter_by_prod/:id", specsHandler.GetProductSpecifications)

		api.GET("/reviews/filter_by_prod/:id", reviewsHandler.GetProductReviews)
		api.POST("/reviews", middleware.RequireAccessToken(cfg.JWTSecret), reviewsHandler.CreateReview)

		api.GET("/tags", contentHandler.GetTags)
		api.GET("/descriptions/filter_by_prod/:id", contentHandler.GetProductDescriptions)
		api.GET("/blogs", contentHandler.GetBlogs)
		api.GET("/blogs/:id", contentHandler.GetBlog)
		api.GET("/services", contentHandler.GetServices)

		searchGroup := api.Group("/search")
		searchGroup.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.SearchRateLimit, cfg.SearchRateBurst)))
		searchGroup.GET("", searchHandler.Global)
		searchGroup.GET("/products/:query", searchHandler.Products)
		searchGroup.GET("/categories/:query", searchHandler.Categories)
	}

	// Admin routes
	admin := api.Group("/admin")
	if cfg.Environment == "development" {
		admin.Use(middleware.DevelopmentAuthMiddleware(cfg.JWTSecret))
	} else {
		admin.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	}
	admin.Use(middleware.RequireAnyRole("admin", "manager"))
	{
		admin.POST("/products", productsHandler.CreateProduct)
		admin.PUT("/products/:id", productsHandler.UpdateProduct)
		admin.DELETE("/products/:id", productsHandler.DeleteProduct)
		admin.PUT("/products/:id/specifications", specsHandler.SetProductSpecifications)
		admin.GET("/products/export", importHandler.ExportProducts)

		admin.POST("/categories", categoriesHandler.CreateCategory)
		admin.PUT("/categories/:id", categoriesHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoriesHandler.DeleteCategory)

		admin.POST("/brands", brandsHandler.CreateBrand)
		admin.PUT("/brands/:id", brandsHandler.UpdateBrand)
		admin.DELETE("/brands/:id", brandsHandler.DeleteBrand)

		admin.POST("/cities", salesPointsHandler.CreateCity)
		admin.PUT("/cities/:id", salesPointsHandler.UpdateCity)
		admin.DELETE("/cities/:id", salesPointsHandler.DeleteCity)

		admin.GET("/warehouses", salesPointsHandler.GetWarehouses)
		admin.POST("/warehouses", salesPointsHandler.CreateWarehouse)
		admin.PUT("/warehouses/:id", salesPointsHandler.UpdateWarehouse)
		admin.DELETE("/warehouses/:id", salesPointsHandler.DeleteWarehouse)

		admin.PUT("/stocks", salesPointsHandler.UpsertStock)
		admin.DELETE("/stocks/:id", salesPointsHandler.DeleteStock)
		admin.GET("/stocks/import/template", importHandler.GetStockTemplate)
		admin.POST("/stocks/import", importHandler.ImportStocks)
		admin.GET("/stocks/export", importHandler.ExportStocks)

		admin.GET("/edges", salesPointsHandler.GetEdges)
		admin.GET("/edges/:id", salesPointsHandler.GetEdge)
		admin.POST("/edges", salesPointsHandler.CreateEdge)
		admin.PUT("/edges/:id", salesPointsHandler.UpdateEdge)
		admin.DELETE("/edges/:id", salesPointsHandler.DeleteEdge)

		admin.GET("/discounts", discountsHandler.GetDiscounts)
		admin.GET("/discounts/:id", discountsHandler.GetDiscount)
		admin.POST("/discounts", discountsHandler.CreateDiscount)
		admin.PUT("/discounts/:id", discountsHandler.UpdateDiscount)
		admin.DELETE("/discounts/:id", discountsHandler.DeleteDiscount)

		admin.GET("/reviews/pending", reviewsHandler.GetPendingReviews)
		admin.PATCH("/reviews/:id", reviewsHandler.ModerateReview)
		admin.DELETE("/reviews/:id", reviewsHandler.DeleteReview)

		admin.POST("/tags", contentHandler.CreateTag)
		admin.PUT("/tags/:id", contentHandler.UpdateTag)
		admin.DELETE("/tags/:id", contentHandler.DeleteTag)
		admin.POST("/descriptions", contentHandler.CreateDescription)
		admin.PUT("/descriptions/:id", contentHandler.UpdateDescription)
		admin.DELETE("/descriptions/:id", contentHandler.DeleteDescription)
		admin.POST("/blogs", contentHandler.CreateBlog)
		admin.PUT("/blogs/:id", contentHandler.UpdateBlog)
		admin.DELETE("/blogs/:id", contentHandler.DeleteBlog)
		admin.POST("/banners", contentHandler.CreateBanner)
		admin.DELETE("/banners/:id", contentHandler.DeleteBanner)
		admin.POST("/services", contentHandler.CreateService)
		admin.PUT("/services/:id", contentHandler.UpdateService)
		admin.DELETE("/services/:id", contentHandler.DeleteService)

		admin.GET("/orders", ordersHandler.GetOrders)
		admin.GET("/orders/archive", ordersHandler.GetArchive)
		admin.GET("/orders/:id", ordersHandler.GetOrder)
		admin.PATCH("/orders/:id", ordersHandler.UpdateOrder)
		admin.GET("/orders/:id/basket-summary", ordersHandler.GetBasketSummary)
		admin.GET("/orders/:id/invoice.pdf", ordersHandler.GetInvoice)

		admin.POST("/search/reindex", searchHandler.Reindex)

		admin.GET("/workers", workersHandler.GetStatus)
		admin.POST("/workers/:name/run", workersHandler.RunWorker)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-service...")

	sweeper.Stop()
	if etlWorker != nil {
		etlWorker.Stop()
	}
	log.Println("✓ Background workers stopped")

	cancelRoot()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Catalog service stopped")
}

// connectRedis returns nil when caching is off or Redis is unreachable.
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("REDIS_URL not set, caching disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (caching will be disabled)", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		client.Close()
		return nil
	}
	log.Println("✓ Redis connected successfully")
	return client
}

func connectJetStream(ctx context.Context, url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := events.Connect(url, "catalog-service")
	if err != nil {
		return nil, nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := events.EnsureStreams(streamCtx, js); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, js, nil
}

func connectElastic(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*search.Elastic, error) {
	es, err := search.NewElastic(cfg.ElasticsearchURL, cfg.ElasticsearchPrefix, logger)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := es.Ping(pingCtx); err != nil {
		return nil, err
	}
	if err := es.EnsureIndices(pingCtx); err != nil {
		return nil, err
	}
	return es, nil
}
