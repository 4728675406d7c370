package form

// Answer keys of the contract questionnaire.
const (
	CustomerFullName        = "customer_full_name"
	StudentName             = "student_name"
	Target                  = "target"
	EmailAddress            = "email"
	Telegram                = "telegram"
	PassportSeriesAndNumber = "passport_series_and_number"
	PassportIssue           = "passport_issue"
	PassportIssueDate       = "passport_issue_date"
	PassportDeptCode        = "passport_dept_code"
	RegistrationAddress     = "registration_address"
)

// Contract returns the questionnaire for the tutoring contract.
func Contract() Catalog {
	return Catalog{
		{
			Name:     CustomerFullName,
			Label:    "ФИО Заказчика",
			Prompt:   "Введите ФИО заказчика (Фамилия Имя Отчество):",
			Validate: FullName,
		},
		{
			Name:     StudentName,
			Label:    "ФИО Ученика",
			Prompt:   "Введите ФИО ученика (ФИО полностью):",
			Validate: FullName,
		},
		{
			Name:     Target,
			Label:    "Цель занятий",
			Prompt:   "К какому результату вы хотите прийти (цель занятий лучше описать подробнее):",
			Validate: NonEmpty,
		},
		{
			Name:     EmailAddress,
			Label:    "Почта",
			Prompt:   "Введите e-mail (в формате username@example.com):",
			Validate: Email,
		},
		{
			Name:     Telegram,
			Label:    "Телеграм",
			Prompt:   "Введите Ваш Telegram (в формате @username):",
			Validate: TelegramHandle,
		},
		{
			Name:     PassportSeriesAndNumber,
			Label:    "Серия и номер паспорта",
			Prompt:   "Введите серию и номер паспорта (например, 1234 567890):",
			Validate: PassportSeriesNumber,
		},
		{
			Name:     PassportIssue,
			Label:    "Кем выдан",
			Prompt:   "Кем выдан паспорт (пример: ОВД района):",
			Validate: NonEmpty,
		},
		{
			Name:     PassportIssueDate,
			Label:    "Дата выдачи",
			Prompt:   "Дата выдачи паспорта (ДД.ММ.ГГГГ):",
			Validate: IssueDate,
		},
		{
			Name:     PassportDeptCode,
			Label:    "Код подразделения",
			Prompt:   "Код подразделения (например, 123-456):",
			Validate: DeptCode,
		},
		{
			Name:     RegistrationAddress,
			Label:    "Адрес регистрации",
			Prompt:   "Адрес регистрации:",
			Validate: NonEmpty,
		},
	}
}
