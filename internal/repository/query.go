package repository

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Op は検索条件の演算子を表す。
type Op string

const (
	OpEq      Op = "eq"
	OpNeq     Op = "neq"
	OpILike   Op = "ilike"
	OpIn      Op = "in"
	OpNotIn   Op = "not_in"
	OpIsNull  Op = "is_null"
	OpNotNull Op = "not_null"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
)

// Condition は1つの検索条件を表す。
type Condition struct {
	Field string
	Op    Op
	Value any
}

// OrderBy はソート指定を表す。
type OrderBy struct {
	Field string
	Desc  bool
}

// Query はレコードストアへの filter / order / limit 問い合わせを表す。
// 条件はAND結合され、AnyOfで追加したグループは内部がOR結合される。
// コア処理はSQLの詳細に依存せず、この問い合わせ契約だけを使用する。
type Query struct {
	Table  string
	Where  []Condition
	AnyOf  [][]Condition
	Orders []OrderBy
	Limit  int
}

// Select は指定テーブルに対する問い合わせを開始する。
func Select(table string) *Query {
	return &Query{Table: table}
}

// Filter はAND条件を追加する。
func (q *Query) Filter(field string, op Op, value any) *Query {
	q.Where = append(q.Where, Condition{Field: field, Op: op, Value: value})
	return q
}

// Or はOR結合された条件グループを追加する。グループ全体は他の条件とAND結合される。
func (q *Query) Or(conds ...Condition) *Query {
	if len(conds) > 0 {
		q.AnyOf = append(q.AnyOf, conds)
	}
	return q
}

// Order はソート指定を追加する。
func (q *Query) Order(field string, desc bool) *Query {
	q.Orders = append(q.Orders, OrderBy{Field: field, Desc: desc})
	return q
}

// WithLimit は取得件数の上限を設定する。0以下は上限なし。
func (q *Query) WithLimit(n int) *Query {
	q.Limit = n
	return q
}

// psql はPostgreSQLのプレースホルダ形式（$1, $2...）を使うステートメントビルダ。
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// toSelectSQL はQueryをSELECT文に変換する。
// allowedに含まれないフィールド名は拒否する。
func (q *Query) toSelectSQL(columns []string, allowed map[string]bool) (string, []any, error) {
	b := psql.Select(columns...).From(q.Table)

	pred, err := q.predicates(allowed)
	if err != nil {
		return "", nil, err
	}
	if pred != nil {
		b = b.Where(pred)
	}

	for _, o := range q.Orders {
		if !allowed[o.Field] {
			return "", nil, fmt.Errorf("ソート対象外のフィールドです: %s", o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		b = b.OrderBy(o.Field + " " + dir)
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	return b.ToSql()
}

// toCountSQL はQueryを件数取得のSELECT COUNT(*)文に変換する。ソートと件数上限は無視する。
func (q *Query) toCountSQL(allowed map[string]bool) (string, []any, error) {
	b := psql.Select("COUNT(*)").From(q.Table)

	pred, err := q.predicates(allowed)
	if err != nil {
		return "", nil, err
	}
	if pred != nil {
		b = b.Where(pred)
	}
	return b.ToSql()
}

func (q *Query) predicates(allowed map[string]bool) (sq.Sqlizer, error) {
	var and sq.And
	for _, c := range q.Where {
		s, err := conditionSQL(c, allowed)
		if err != nil {
			return nil, err
		}
		and = append(and, s)
	}
	for _, group := range q.AnyOf {
		var or sq.Or
		for _, c := range group {
			s, err := conditionSQL(c, allowed)
			if err != nil {
				return nil, err
			}
			or = append(or, s)
		}
		and = append(and, or)
	}
	if len(and) == 0 {
		return nil, nil
	}
	return and, nil
}

func conditionSQL(c Condition, allowed map[string]bool) (sq.Sqlizer, error) {
	if !allowed[c.Field] {
		return nil, fmt.Errorf("検索対象外のフィールドです: %s", c.Field)
	}
	switch c.Op {
	case OpEq, OpIn:
		return sq.Eq{c.Field: c.Value}, nil
	case OpNeq, OpNotIn:
		return sq.NotEq{c.Field: c.Value}, nil
	case OpILike:
		return sq.ILike{c.Field: c.Value}, nil
	case OpIsNull:
		return sq.Eq{c.Field: nil}, nil
	case OpNotNull:
		return sq.NotEq{c.Field: nil}, nil
	case OpGt:
		return sq.Gt{c.Field: c.Value}, nil
	case OpGte:
		return sq.GtOrEq{c.Field: c.Value}, nil
	case OpLt:
		return sq.Lt{c.Field: c.Value}, nil
	case OpLte:
		return sq.LtOrEq{c.Field: c.Value}, nil
	default:
		return nil, fmt.Errorf("未対応の演算子です: %s", c.Op)
	}
}
