package utils

import (
	"fmt"
	"os"
)

func ReadImageBuffer(imagePath string) ([]byte, error) {
	buffer, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("error while reading image :%v", err)
	}
	return buffer, nil
}
