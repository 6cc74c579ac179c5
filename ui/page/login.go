package page

type LoginData struct {
	Next   string
	Failed bool
}
