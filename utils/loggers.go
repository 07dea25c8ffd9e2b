package utils

import (
	"log"
	"os"
	"sync"
)

var (
	infoLogger    *log.Logger
	warningLogger *log.Logger
	errorLogger   *log.Logger
	loggerOnce    sync.Once
)

func InitLogger() {
	loggerOnce.Do(func() {
		infoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
		warningLogger = log.New(os.Stdout, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
		errorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	})
}

func LogInfo(message string) {
	InitLogger()
	infoLogger.Println(message)
}

func LogWarning(message string) {
	InitLogger()
	warningLogger.Println(message)
}

func LogError(message string, err error) {
	InitLogger()
	if err != nil {
		errorLogger.Printf("%s: %v", message, err)
	} else {
		errorLogger.Println(message)
	}
}

func LogFatal(message string, err error) {
	InitLogger()
	if err != nil {
		errorLogger.Fatalf("%s: %v", message, err)
	} else {
		errorLogger.Fatal(message)
	}
}
