package sms

import (
	"fmt"
	"strconv"
)

// Outbound SMS texts. Farmers read these on basic handsets, so they stay
// short and in Amharic.
const (
	MsgWelcome = "እንኳን ወደ አግሮLink በሰላም መጡ! ለመመዝገብ ሙሉ ስምዎን እና የባንክ ሂሳብ ቁጥርዎን በኮማ ለይተው ይላኩ። ምሳሌ: አበበ በቀለ, 1000123456789"

	MsgRegistrationInProgress = "ምዝገባዎ በሂደት ላይ ነው። እባክዎ ሙሉ ስምዎን እና የባንክ ሂሳብ ቁጥርዎን በኮማ ለይተው ይላኩ።"

	MsgInvalidNameAccount = "ያስገቡት መረጃ ትክክል አይደለም። እባክዎ በዚህ መልኩ ይላኩ: አበበ በቀለ, 1000123456789"

	MsgAlreadyRegistered = "ቀድሞውኑ ተመዝግበዋል። ምርትዎን ለመመዝገብ በዚህ መልኩ ይላኩ: " + ProductExample

	MsgRegistrationCompleted = "ምዝገባዎ በተሳካ ሁኔታ ተጠናቋል! ያሎትን ምርቶች አይነት፣ ብዛት እና ዋጋ በዚህ መልኩ ይላኩ: " + ProductExample

	MsgProductNotUnderstood = "መልእክትዎ አልተረዳንም። እባክዎ በዚህ መልኩ ይላኩ: " + ProductExample
)

// RegistrationLimited tells the sender they must wait before retrying.
func RegistrationLimited(trigger string) string {
	return fmt.Sprintf("የምዝገባ ሙከራ ገደብ ላይ ደርሰዋል። እባክዎ ከ24 ሰዓት በኋላ \"%s\" ብለው እንደገና ይሞክሩ።", trigger)
}

// OTPCode carries the one-time code.
func OTPCode(code string, minutes int) string {
	return fmt.Sprintf("የአግሮLink ማረጋገጫ ኮድዎ %s ነው። ኮዱ ለ%d ደቂቃ ያገለግላል።", code, minutes)
}

// OTPInvalid asks for a fresh code by sending the trigger again.
func OTPInvalid(trigger string) string {
	return fmt.Sprintf("ኮዱ ትክክል አይደለም ወይም ጊዜው አልፎበታል። አዲስ ኮድ ለማግኘት \"%s\" ብለው ይላኩ።", trigger)
}

// OTPResendLimited is sent once the resend allowance is used up.
func OTPResendLimited() string {
	return "አዲስ ኮድ የመጠየቅ ገደብ ላይ ደርሰዋል። እባክዎ ከ24 ሰዓት በኋላ እንደገና ይሞክሩ።"
}

// ProductConfirmed echoes the listed product back to the farmer.
func ProductConfirmed(name string, quantity int, price float64) string {
	return fmt.Sprintf("ምርት \"%s\" (ብዛት: %d ኪ.ግ, ዋጋ: %s ብር) በትክክል ተመዝግቧል።",
		name, quantity, strconv.FormatFloat(price, 'f', -1, 64))
}
