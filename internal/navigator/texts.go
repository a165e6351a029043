package navigator

import (
	"fmt"
	"strings"

	"fines/internal/core"
)

// Button labels.
const (
	btnMainMenu       = "🏠 В главное меню"
	btnBackToMainMenu = "◀️ В главное меню"
	btnAddFine        = "📝 Добавить штраф"
	btnCheckFines     = "📊 Проверить штрафы"
	btnAdjustFines    = "✏️ Корректировка штрафов"
	btnAdjustShort    = "✏️ Корректировка"
	btnArchive        = "📚 Архив штрафов"
	btnBackToStaff    = "◀️ Назад к сотрудникам"
	btnBackToList     = "◀️ Назад к списку"
	btnBackToAdjust   = "◀️ Назад к списку сотрудников"
	btnBackToMonths   = "◀️ Назад к месяцам"
	btnBackToMonth    = "◀️ Назад к месяцу"
	btnBack           = "◀️ Назад"
	btnDeleteLast     = "⏪ Удалить последний штраф"
	btnAdjustEmployee = "✏️ Корректировать штрафы"
)

// Fixed texts.
const (
	txtMainMenu        = "Главное меню:"
	txtPickEmployee    = "👥 Выберите сотрудника:"
	txtSelectionStale  = "⚠️ Выбор больше не действителен, начните заново."
	txtAccessDenied    = "⛔ У вас нет прав для выполнения этого действия.\n\nТолько администраторы могут добавлять и корректировать штрафы."
	txtInvalidAction   = "⚠️ Неизвестное действие. Вернитесь в главное меню."
	txtFailure         = "⚠️ Произошла ошибка. Попробуйте ещё раз позже."
	txtNoAction        = "Нет доступных действий"
	txtNotFound        = "❌ Штраф не найден или уже был удален"
	txtAdjustNone      = "✏️ Корректировка штрафов\n\n❌ Нет сотрудников со штрафами в текущем месяце"
	txtAdjustPick      = "✏️ Корректировка штрафов\n\nВыберите сотрудника для корректировки:"
	txtArchiveEmpty    = "📚 Архив штрафов\n\nЗаписей пока нет."
	txtArchivePick     = "📚 Архив штрафов\n\nВыберите месяц:"
	txtCurrentSuffix   = " (текущий)"
	breakdownRule      = "═════════════════════════"
	reasonDisplayLimit = 25
)

func welcomeText(admin bool, username string) string {
	if admin {
		return fmt.Sprintf("👋 Добро пожаловать, администратор @%s!", username)
	}
	return fmt.Sprintf("👋 Добро пожаловать, @%s!\n\nВы можете просматривать штрафы.", username)
}

func reasonPickerText(employee string) string {
	return fmt.Sprintf("👤 Сотрудник: %s\n\n📋 Выберите причину штрафа:", employee)
}

func choiceLabel(amount int, reason string) string {
	return fmt.Sprintf("%s (%d)", reason, amount)
}

func confirmationText(f core.Fine, total int) string {
	return fmt.Sprintf("✅ Штраф успешно добавлен!\n\n"+
		"👤 Сотрудник: %s\n"+
		"💰 Штраф: %d баллов\n"+
		"📋 Причина: %s\n"+
		"📅 Месяц: %s\n"+
		"💯 Всего у сотрудника: %d баллов",
		f.Employee, f.Amount, f.Reason, f.Month, total)
}

func addAnotherLabel(employee string) string {
	return fmt.Sprintf("📝 Ещё штраф: %s", employee)
}

func removedHeader(f core.Fine, last bool) string {
	title := "✅ Штраф удален!"
	if last {
		title = "✅ Последний штраф удален!"
	}
	return fmt.Sprintf("%s\n\n👤 Сотрудник: %s\n💰 Удалено: %d баллов\n📋 Причина: %s\n\n",
		title, f.Employee, f.Amount, f.Reason)
}

func adjustListText(employee string, total, count int) string {
	text := fmt.Sprintf("✏️ Корректировка штрафов: %s\n💰 Текущая сумма: %d баллов\n📋 Количество штрафов: %d\n\n",
		employee, total, count)
	if count == 0 {
		return text + "Штрафов за текущий месяц нет."
	}
	return text + "Выберите штраф для удаления:"
}

func adjustEmployeeLabel(employee string, total int) string {
	return fmt.Sprintf("%s (👤 %d баллов)", employee, total)
}

func fineRowLabel(f core.Fine) string {
	return fmt.Sprintf("🗑 %d баллов - %s (%s)", f.Amount, shortReason(f.Reason), f.DateLabel())
}

// shortReason truncates by runes so multi-byte reasons stay valid UTF-8.
func shortReason(reason string) string {
	r := []rune(reason)
	if len(r) <= reasonDisplayLimit {
		return reason
	}
	return string(r[:reasonDisplayLimit-3]) + "..."
}

func nothingToDeleteText(employee string) string {
	return fmt.Sprintf("❌ У сотрудника %s нет штрафов для удаления", employee)
}

func checkFinesEmptyText(month core.Month) string {
	return fmt.Sprintf("📊 Штрафы за %s\n\nЗа текущий месяц штрафов нет.", month)
}

func checkFinesText(month core.Month) string {
	return fmt.Sprintf("📊 ШТРАФЫ ЗА %s\n\nВыберите сотрудника для просмотра детальной информации:", month)
}

func totalLabel(employee string, total int) string {
	return fmt.Sprintf("%s — %d баллов", employee, total)
}

func monthLabel(month core.Month, current bool) string {
	label := "📅 " + string(month)
	if current {
		label += txtCurrentSuffix
	}
	return label
}

func monthDetailText(month core.Month, empty bool) string {
	if empty {
		return fmt.Sprintf("📅 Штрафы за %s\n\nЗа этот месяц штрафов нет.", month)
	}
	return fmt.Sprintf("📅 Штрафы за %s\n\nВыберите сотрудника:", month)
}

// marker colours a reason group by its point sum.
func marker(amount int) string {
	switch {
	case amount >= 50:
		return "🔴"
	case amount >= 25:
		return "🟠"
	default:
		return "🟡"
	}
}

func breakdownText(employee string, month core.Month, s core.Summary, current bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 *%s*\n", inBold(employee))
	fmt.Fprintf(&b, "📅 Месяц: %s\n", month)
	fmt.Fprintf(&b, "💰 *Общая сумма штрафов: %d баллов*\n\n", s.Total)

	if len(s.Groups) == 0 {
		if current {
			b.WriteString("❌ Нет штрафов за текущий месяц\n")
		} else {
			b.WriteString("❌ Нет штрафов за этот месяц\n")
		}
		return b.String()
	}

	b.WriteString("📋 *Детализация по причинам:*\n")
	b.WriteString(breakdownRule + "\n")
	for _, g := range s.Groups {
		fmt.Fprintf(&b, "%s *%s*\n", marker(g.Amount), inBold(g.Reason))
		fmt.Fprintf(&b, "   └─ %d штраф(ов) на %d баллов\n", g.Count, g.Amount)
	}
	b.WriteString(breakdownRule + "\n")
	return b.String()
}

// inBold makes s safe inside a legacy Markdown *bold* entity, where escapes
// are not recognised; only '*' would end the entity early.
func inBold(s string) string {
	return strings.ReplaceAll(s, "*", "∗")
}
