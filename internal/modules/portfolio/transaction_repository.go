package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TransactionRepository handles transaction ledger database operations
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// Add inserts a transaction.
func (r *TransactionRepository) Add(tx Transaction) error {
	_, err := r.db.Exec(
		`INSERT INTO transactions (id, symbol, action, quantity, price, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Symbol, tx.Action, tx.Quantity, tx.Price, tx.ExecutedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetAll returns all transactions, oldest first.
func (r *TransactionRepository) GetAll() ([]Transaction, error) {
	rows, err := r.db.Query(
		`SELECT id, symbol, action, quantity, price, executed_at
		 FROM transactions ORDER BY executed_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		var executedAt int64
		if err := rows.Scan(&tx.ID, &tx.Symbol, &tx.Action, &tx.Quantity, &tx.Price, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.ExecutedAt = time.Unix(executedAt, 0).UTC()
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Delete removes a transaction by id. Returns sql.ErrNoRows when absent.
func (r *TransactionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// NetPosition returns the signed net quantity held in symbol.
func (r *TransactionRepository) NetPosition(symbol string) (float64, error) {
	var net sql.NullFloat64
	err := r.db.QueryRow(
		`SELECT SUM(CASE WHEN action = 'buy' THEN quantity ELSE -quantity END)
		 FROM transactions WHERE symbol = ?`, symbol).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("failed to sum position: %w", err)
	}
	return net.Float64, nil
}

// NetPositions returns net quantities per symbol, dropping flat and short
// positions.
func (r *TransactionRepository) NetPositions() (map[string]float64, error) {
	rows, err := r.db.Query(
		`SELECT symbol,
		        SUM(CASE WHEN action = 'buy' THEN quantity ELSE -quantity END) AS net
		 FROM transactions GROUP BY symbol HAVING net > 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var symbol string
		var net float64
		if err := rows.Scan(&symbol, &net); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		out[symbol] = net
	}
	return out, rows.Err()
}
