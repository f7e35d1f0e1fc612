package entities

// Snapshot - согласованное чтение всего, что нужно для построения экрана.
type Snapshot struct {
	OpenOrders []Order
	AllOrders  []Order
	Users      []User
	Reports    []WeeklyReport
	Clients    []Client
}
