package storage

type Fine struct {
	ID        int64
	Employee  string
	Amount    int64
	Reason    string
	CreatedAt string
	Month     string
}

type Admin struct {
	UserID   int64
	Username string
	AddedAt  string
}

type ReasonSummaryRow struct {
	Reason      string
	Count       int64
	TotalAmount int64
}

type EmployeeTotalRow struct {
	Employee string
	Total    int64
}
