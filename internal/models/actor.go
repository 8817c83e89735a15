package models

// Actor: Yazma işlemini yapan çalışan. Her yazma çağrısına açıkça geçirilir.
type Actor struct {
	ID   uint
	Name string
}
