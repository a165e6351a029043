package catalog

var defaultEmployees = []string{
	"Наринэ", "Катя", "Жанна", "Августина", "Лилит", "Настя", "Ира", "Юля", "Богдан",
}

var defaultTiers = []Tier{
	{Amount: 50, Reasons: []string{
		"❌ Невыполнение задания",
		"💔 Порча продукции",
		"🔧 Порча инвентаря",
	}},
	{Amount: 25, Reasons: []string{
		"⏰ Просрок",
		"🏷 Отсутствие маркировки",
		"📅 Продление срока",
		"📦 Нет упаковки",
		"🧹 Грязное оборудование",
		"👎 Нетоварный вид",
	}},
	{Amount: 10, Reasons: []string{
		"👋 Не здороваемся",
		"🍔 Еда в рабочей зоне",
		"👕 Личные вещи",
		"🛒 Пустая зона",
		"🚪 Не открыта дверь",
	}},
}

// Default returns the built-in roster and fine tiers.
func Default() *Catalog {
	return MustNew(defaultEmployees, defaultTiers)
}
