package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/config"
    "github.com/makshevelkin/MIPTORENT/internal/database"
    "github.com/makshevelkin/MIPTORENT/internal/handler"
    "github.com/makshevelkin/MIPTORENT/internal/middleware"
    "github.com/makshevelkin/MIPTORENT/internal/queue"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
    "github.com/makshevelkin/MIPTORENT/internal/router"
)

func main() {
    // Load .env if present; real deployments set variables directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis carries the draft carts, so unlike caching and rate
    // limiting it is not optional.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Fatal("redis: connection required for cart storage")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    categories := repository.NewCategoryRepo(db)
    items := repository.NewItemRepo(db)
    orders := repository.NewOrderRepo(db)
    carts := repository.NewCartStore(rdb, cfg.CartTTLDays)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    catalogH := handler.NewCatalogHandler(categories, items, orders)
    cartH := handler.NewCartHandler(cfg, carts, items, orders, users)
    adminItemsH := handler.NewAdminItemHandler(items, categories)
    adminCatsH := handler.NewAdminCategoryHandler(categories)
    adminOrdersH := handler.NewAdminOrderHandler(orders)

    e := echo.New()
    e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
    router.RegisterPublic(e, catalogH)
    router.RegisterCart(e, cartH, cfg.JWTSecret)
    router.RegisterAdmin(e, adminItemsH, adminCatsH, adminOrdersH, cfg.JWTSecret)

    // The mail worker runs inside the same process; it reconnects on
    // broker failures and never stops the server.
    go func() {
        if err := queue.StartMailConsumer(); err != nil {
            log.Printf("mail consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
