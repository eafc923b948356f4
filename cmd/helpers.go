package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "cmd")

// ConfirmAction uses the passed in actionText as the confirmation text displayed in the terminal.
// The user must enter Y or N to indicate whether they approve the action. An
// error is returned when reading from stdin fails.
func ConfirmAction(actionText, deniedText string) (bool, error) {
	var confirmed bool
	reader := bufio.NewReader(os.Stdin)
	log.Warn(actionText)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, errors.Wrap(err, "could not read user input")
		}
		trimmedLine := strings.TrimSpace(line)
		lineInput := strings.ToUpper(trimmedLine)
		if lineInput != "Y" && lineInput != "N" {
			log.Errorf("Invalid option of %s chosen, please only enter Y/N", line)
			continue
		}
		if lineInput == "Y" {
			log.WithField("option", lineInput).Debug("Option chosen")
			confirmed = true
			break
		}
		log.Info(deniedText)
		break
	}
	return confirmed, nil
}
