package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Open builds the MySQL pool for the rental store and verifies it with
// a ping before anyone runs a query.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    cred := user
    if pass != "" {
        cred = user + ":" + pass
    }
    // parseTime maps DATETIME columns onto time.Time; every timestamp
    // in the schema is stored and compared in UTC.
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        cred, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }

    // Checkout holds row locks, so the pool must stay wide enough that
    // lock holders and waiters do not starve each other of connections.
    db.SetMaxOpenConns(30)
    db.SetMaxIdleConns(10)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}
