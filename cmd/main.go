package main

import "github.com/hyeonup/eisenmatrix/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustOpenStorage()
	defer app.CloseStorage()

	app.InitReminderScheduler()
	defer app.StopReminderScheduler()

	app.MustListenAndServeHTTP()
}
