package conversation

import "fmt"

// Control phrases, compared case-insensitively.
const (
	ConsentPhrase = "Даю согласие"
	ConfirmPhrase = "Подтвердить"
	CancelPhrase  = "Отменить"
)

// DefaultPrivacyPolicyURL is linked from the consent message.
const DefaultPrivacyPolicyURL = "https://drive.google.com/file/d/1UUXMf6yP-9s6l2MGLBzqxFaK_Cy11DRo/view?usp=sharing"

const (
	msgStartFirst = "Пожалуйста, начните анкету командой /start."

	msgConsentReminder = "Пожалуйста, подтвердите согласие на обработку данных, нажав кнопку \"Даю согласие\"."

	msgInvalidAnswer = "Некорректный ответ. Попробуйте еще раз!\n"

	msgChooseOption = "Пожалуйста, выберите 'Подтвердить' или 'Отменить'."

	msgRetry = "Давайте попробуем еще раз. "

	msgGenerating = "Договор формируется, пожалуйста, подождите."

	msgGenerationFailed = "Произошла ошибка при формировании договора. " +
		"Пожалуйста, попробуйте позже или обратитесь к администрации."

	msgCompleted = "Ваш договор сформирован!\n" +
		"Он придет в течение двух суток с этого момента на указанную вами почту. " +
		"Его нужно будет подписать с помощью простой электронной подписи через сервис Контур Сайн, " +
		"инструкция также будет приложена."
)

func consentMessage(policyURL string) string {
	return fmt.Sprintf("Ознакомьтесь, пожалуйста, с нашей [Политикой обработки персональных данных](%s).\n"+
		"Для продолжения необходимо Ваше согласие на обработку персональных данных в соответствии "+
		"с Федеральным законом № 152-ФЗ \"О персональных данных\".\n"+
		"Нажмите 'Даю согласие', чтобы продолжить.", policyURL)
}

func summaryMessage(summary string) string {
	return "Спасибо! Ваши ответы:\n" + summary +
		"\n\nЭти данные будут в настоящем договоре, в котором не должно быть ошибок!" +
		"\n\nЕсли данные полностью корректны, то нажмите кнопку \"Подтвердить\", " +
		"иначе \"Отменить\" и заполните данные ещё раз."
}

// adminCaption accompanies the contract sent to the administrative chat.
func adminCaption(email, telegram string) string {
	return email + "\n" + telegram
}
