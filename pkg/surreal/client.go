package surreal

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

type Client struct {
	db *surrealdb.DB
}

// identifierRegex ensures that table names and fields only contain alphanumeric characters and underscores
var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateIdentifier(s string) error {
	if !identifierRegex.MatchString(s) {
		return fmt.Errorf("invalid identifier: %s", s)
	}
	return nil
}

// NormalizeHost turns a bare host into a websocket RPC endpoint.
func NormalizeHost(host string) string {
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") ||
		strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "wss://" + host + "/rpc"
}

func NewClient(ctx context.Context, host, user, pass, namespace, database string) (*Client, error) {
	db, err := surrealdb.New(NormalizeHost(host))
	if err != nil {
		return nil, fmt.Errorf("failed to create surrealdb client: %w", err)
	}

	if _, err = db.SignIn(ctx, map[string]interface{}{
		"user": user,
		"pass": pass,
	}); err != nil {
		return nil, fmt.Errorf("failed to signin to surrealdb: %w", err)
	}

	if err = db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use surrealdb namespace/database: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close() {
	c.db.Close(context.Background())
}

// Query runs sql and returns the Result of the last statement.
func (c *Client) Query(ctx context.Context, sql string, vars map[string]interface{}) (interface{}, error) {
	result, err := surrealdb.Query[interface{}](ctx, c.db, sql, vars)
	if err != nil {
		return nil, err
	}

	// Unwrap the result: *[]QueryResult -> Result field of the last statement
	rv := reflect.ValueOf(result)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		resField := rv.FieldByName("Result")
		if resField.IsValid() {
			return resField.Interface(), nil
		}
	} else if rv.Kind() == reflect.Slice {
		if rv.Len() > 0 {
			lastElem := rv.Index(rv.Len() - 1)
			if lastElem.Kind() == reflect.Struct {
				resField := lastElem.FieldByName("Result")
				if resField.IsValid() {
					return resField.Interface(), nil
				}
			}
		}
	}

	return result, nil
}

// Insert creates one record in table with the given content.
func (c *Client) Insert(ctx context.Context, table string, content map[string]interface{}) error {
	if err := validateIdentifier(table); err != nil {
		return err
	}
	_, err := c.Query(ctx, fmt.Sprintf("CREATE %s CONTENT $content;", table),
		map[string]interface{}{"content": content})
	return err
}

// DeleteBefore removes rows of table whose field is below cutoff and returns how many went.
func (c *Client) DeleteBefore(ctx context.Context, table, field string, cutoff int64) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	if err := validateIdentifier(field); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE %s WHERE %s < $cutoff RETURN BEFORE;", table, field)
	result, err := c.Query(ctx, query, map[string]interface{}{"cutoff": cutoff})
	if err != nil {
		return 0, err
	}

	rows, ok := result.([]interface{})
	if !ok {
		return 0, nil
	}
	return int64(len(rows)), nil
}
